package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/owner/domain"
	"github.com/smallbiznis/villadesk/internal/owner/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:owner_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Owner{}, &domain.Payment{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		Config: config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig()),
		Repo:   repository.Provide(),
	})
	return svc, db
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAccrueCreatesThenIncrementsLedger(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	first, err := svc.Accrue(ctx, db, domain.Accrual{VillaCode: "abc123", VillaPhone: "809-555-0000", Amount: dec(8000)})
	require.NoError(t, err)
	assert.Equal(t, "Propietario ABC123", first.Name)
	assert.Equal(t, "propietario-abc123", first.OwnerKey)
	assert.Equal(t, []string{"ABC123"}, []string(first.Villas))
	assert.True(t, first.BalanceDue.Equal(dec(8000)))

	second, err := svc.Accrue(ctx, db, domain.Accrual{VillaCode: "ABC123", Amount: dec(2000)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.TotalOwed.Equal(dec(10000)), "total owed %s", second.TotalOwed)
	assert.True(t, second.BalanceDue.Equal(dec(10000)))

	owners, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestAccrueRejectsNonPositiveAmount(t *testing.T) {
	svc, db := newService(t)
	_, err := svc.Accrue(context.Background(), db, domain.Accrual{VillaCode: "X", Amount: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestRecordPaymentRecomputesBalance(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	owner, err := svc.Accrue(ctx, db, domain.Accrual{VillaCode: "V1", Amount: dec(5000)})
	require.NoError(t, err)

	updated, payment, err := svc.RecordPayment(ctx, owner.ID.String(), domain.PaymentInput{Amount: dec(3000), PaymentMethod: "transfer"})
	require.NoError(t, err)
	assert.Equal(t, "transfer", payment.PaymentMethod)
	assert.Equal(t, "DOP", payment.Currency)
	assert.True(t, updated.AmountPaid.Equal(dec(3000)))
	assert.True(t, updated.BalanceDue.Equal(dec(2000)))

	// Overpaying is visible as a negative balance.
	updated, _, err = svc.RecordPayment(ctx, owner.ID.String(), domain.PaymentInput{Amount: dec(2500)})
	require.NoError(t, err)
	assert.True(t, updated.BalanceDue.Equal(dec(-500)), "balance %s", updated.BalanceDue)

	payments, err := svc.ListPayments(ctx, owner.ID.String())
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, _, err = svc.RecordPayment(ctx, owner.ID.String(), domain.PaymentInput{Amount: dec(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, _, err = svc.RecordPayment(ctx, owner.ID.String(), domain.PaymentInput{Amount: dec(1), PaymentMethod: "cheque"})
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
}

func TestSetTotalOwed(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	owner, err := svc.Accrue(ctx, db, domain.Accrual{VillaCode: "V2", Amount: dec(1000)})
	require.NoError(t, err)

	updated, err := svc.SetTotalOwed(ctx, owner.ID.String(), dec(400))
	require.NoError(t, err)
	assert.True(t, updated.TotalOwed.Equal(dec(400)))
	assert.True(t, updated.BalanceDue.Equal(dec(400)))

	_, err = svc.SetTotalOwed(ctx, owner.ID.String(), dec(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidOwed)
}

func TestCreateUpdateDeleteOwner(t *testing.T) {
	svc, _ := newService(t)
	admin := actor.WithActor(context.Background(), actor.Actor{UserID: 1, Role: actor.RoleAdmin})
	employee := actor.WithActor(context.Background(), actor.Actor{UserID: 2, Role: actor.RoleEmployee})

	owner, err := svc.Create(employee, domain.OwnerInput{Name: "Juan Soto", Villas: []string{"a1", "A1", " b2 "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, []string(owner.Villas))

	_, err = svc.Create(employee, domain.OwnerInput{Name: "juan soto"})
	assert.Equal(t, apperror.ErrConflict, apperror.KindOf(err))

	updated, err := svc.Update(employee, owner.ID.String(), domain.OwnerInput{Name: "Juan A. Soto", Phone: "809"})
	require.NoError(t, err)
	assert.Equal(t, "juan-a-soto", updated.OwnerKey)

	assert.ErrorIs(t, svc.Delete(employee, owner.ID.String()), actor.ErrAdminRequired)
	require.NoError(t, svc.Delete(admin, owner.ID.String()))
	_, err = svc.Get(admin, owner.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
