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
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	categoryrepo "github.com/smallbiznis/villadesk/internal/category/repository"
	categoryservice "github.com/smallbiznis/villadesk/internal/category/service"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/expense/domain"
	"github.com/smallbiznis/villadesk/internal/expense/repository"
	installmentdomain "github.com/smallbiznis/villadesk/internal/installment/domain"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	sequencerepo "github.com/smallbiznis/villadesk/internal/invoicesequence/repository"
	sequenceservice "github.com/smallbiznis/villadesk/internal/invoicesequence/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	adminCtx    = actor.WithActor(context.Background(), actor.Actor{UserID: 1, Role: actor.RoleAdmin})
	employeeCtx = actor.WithActor(context.Background(), actor.Actor{UserID: 2, Role: actor.RoleEmployee})
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, sequencedomain.Service) {
	t.Helper()

	dsn := fmt.Sprintf("file:expense_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Expense{},
		&installmentdomain.ExpenseInstallment{},
		&sequencedomain.Sequence{},
		&sequencedomain.Claim{},
	))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))
	cfg := config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig())
	sequence := sequenceservice.New(sequenceservice.Params{
		DB: db, Log: zap.NewNop(), Clock: clk, Repo: sequencerepo.Provide(), Config: cfg,
	})

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Config:   cfg,
		Repo:     repository.Provide(),
		Sequence: sequence,
	})
	return svc, db, sequence
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCreateExpenseDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	e, err := svc.Create(employeeCtx, domain.CreateRequest{
		Category:    "local",
		Description: " Luz de la oficina ",
		Amount:      dec(2500),
	})
	require.NoError(t, err)
	assert.Equal(t, "Luz de la oficina", e.Description)
	assert.Equal(t, "DOP", e.Currency)
	assert.Equal(t, "pending", e.PaymentStatus)
	assert.Equal(t, domain.TypeVariable, e.ExpenseType)
	assert.Equal(t, "2", e.CreatedBy)
	assert.False(t, e.IsAutoGenerated())
	assert.True(t, e.BalanceDue.Equal(dec(2500)))
}

func TestCreateExpenseValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(employeeCtx, domain.CreateRequest{Category: "travel", Description: "x", Amount: dec(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.Create(employeeCtx, domain.CreateRequest{Description: "x", Amount: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(employeeCtx, domain.CreateRequest{Amount: dec(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidDesc)

	_, err = svc.Create(employeeCtx, domain.CreateRequest{
		Description: "Renta",
		Amount:      dec(1),
		Reminder:    &domain.Reminder{Enabled: true, DayOfMonth: 40},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReminder)
}

func TestListFiltersAndSearches(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(employeeCtx, domain.CreateRequest{Category: "payroll", Description: "Nomina junio", Amount: dec(30000)})
	require.NoError(t, err)
	_, err = svc.Create(employeeCtx, domain.CreateRequest{Category: "local", Description: "Agua", Amount: dec(800)})
	require.NoError(t, err)

	payroll, err := svc.List(employeeCtx, domain.ListRequest{Category: "payroll"})
	require.NoError(t, err)
	require.Len(t, payroll, 1)

	found, err := svc.List(employeeCtx, domain.ListRequest{Search: "AGUA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Agua", found[0].Description)
}

func TestUpdateExpense(t *testing.T) {
	svc, _, _ := newTestService(t)

	e, err := svc.Create(employeeCtx, domain.CreateRequest{Description: "Gasolina", Amount: dec(1500)})
	require.NoError(t, err)

	status := "paid"
	amount := dec(1800)
	updated, err := svc.Update(employeeCtx, e.ID.String(), domain.UpdateRequest{PaymentStatus: &status, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "paid", updated.PaymentStatus)
	assert.True(t, updated.Amount.Equal(dec(1800)))

	bad := "overdue"
	_, err = svc.Update(employeeCtx, e.ID.String(), domain.UpdateRequest{PaymentStatus: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestEnsurePayoutIsIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	reservationID := snowflake.ID(777)

	req := domain.PayoutRequest{
		ReservationID: reservationID,
		VillaCode:     "abc123",
		InvoiceNumber: "1600",
		CustomerName:  "Juan Perez",
		Amount:        dec(8000),
		Currency:      "DOP",
		ExpenseDate:   time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "1",
	}
	first, created, err := svc.EnsurePayout(context.Background(), db, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.CategoryOwnerPayout, first.Category)
	assert.Equal(t, "Pago propietario villa ABC123 - Factura #1600", first.Description)
	assert.True(t, first.IsAutoGenerated())

	second, created, err := svc.EnsurePayout(context.Background(), db, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	removed, err := svc.DeleteByReservation(context.Background(), db, reservationID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestDeleteReleasesInstallmentNumbers(t *testing.T) {
	svc, db, sequence := newTestService(t)

	e, err := svc.Create(employeeCtx, domain.CreateRequest{Description: "Pintura", Amount: dec(4000)})
	require.NoError(t, err)

	instID := snowflake.ID(9001)
	require.NoError(t, db.Create(&installmentdomain.ExpenseInstallment{
		ID:        instID,
		ExpenseID: e.ID,
		Payment: installmentdomain.Payment{
			Amount:        dec(1000),
			Currency:      "DOP",
			PaymentMethod: "cash",
			PaymentDate:   time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
			InvoiceNumber: "4242",
			CreatedAt:     time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
		},
	}).Error)
	require.NoError(t, sequence.Claim(context.Background(), nil, "4242", sequencedomain.SourceExpenseInstallment, instID))

	got, err := svc.Get(employeeCtx, e.ID.String())
	require.NoError(t, err)
	assert.True(t, got.TotalPaid.Equal(dec(1000)))
	assert.True(t, got.BalanceDue.Equal(dec(3000)))

	assert.ErrorIs(t, svc.Delete(employeeCtx, e.ID.String()), actor.ErrAdminRequired)
	require.NoError(t, svc.Delete(adminCtx, e.ID.String()))

	available, err := sequence.ValidateAvailable(context.Background(), nil, "4242")
	require.NoError(t, err)
	assert.True(t, available)

	var count int64
	require.NoError(t, db.Model(&installmentdomain.ExpenseInstallment{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.Delete(adminCtx, e.ID.String()), domain.ErrNotFound)
}

func TestPayoutExpenseKeepsCategoryAndAmount(t *testing.T) {
	svc, db, _ := newTestService(t)

	payout, _, err := svc.EnsurePayout(context.Background(), db, domain.PayoutRequest{
		ReservationID: snowflake.ID(4242),
		VillaCode:     "ABC123",
		InvoiceNumber: "1600",
		Amount:        dec(8000),
		Currency:      "DOP",
		ExpenseDate:   time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	other := "other"
	_, err = svc.Update(employeeCtx, payout.ID.String(), domain.UpdateRequest{Category: &other})
	assert.ErrorIs(t, err, domain.ErrPayoutLocked)

	amount := dec(5000)
	_, err = svc.Update(adminCtx, payout.ID.String(), domain.UpdateRequest{Amount: &amount})
	assert.ErrorIs(t, err, domain.ErrPayoutLocked)

	same := string(domain.CategoryOwnerPayout)
	unchanged := dec(8000)
	notes := "transferencia pendiente"
	updated, err := svc.Update(employeeCtx, payout.ID.String(), domain.UpdateRequest{
		Category: &same,
		Amount:   &unchanged,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOwnerPayout, updated.Category)
	assert.Equal(t, notes, updated.Notes)

	got, err := svc.Get(adminCtx, payout.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOwnerPayout, got.Category)
	assert.True(t, got.Amount.Equal(dec(8000)))
}

func TestExpenseCategoryAssignment(t *testing.T) {
	_, db, sequence := newTestService(t)
	require.NoError(t, db.AutoMigrate(&categorydomain.ExpenseCategory{}))
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))
	categories := categoryservice.New(categoryservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: categoryrepo.Provide(),
	})
	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clk,
		Config:     config.NewStaticInvoicingConfig(config.DefaultInvoicingConfig()),
		Repo:       repository.Provide(),
		Sequence:   sequence,
		Categories: categories,
	})
	ctx := context.Background()

	power, err := categories.Create(ctx, categorydomain.KindExpense, categorydomain.CreateRequest{Name: "Luz"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Description: "x", Amount: dec(10), ExpenseCategoryID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidGroupID)
	_, err = svc.Create(ctx, domain.CreateRequest{Description: "x", Amount: dec(10), ExpenseCategoryID: "12345"})
	assert.ErrorIs(t, err, categorydomain.ErrUnknown)

	bill, err := svc.Create(ctx, domain.CreateRequest{Description: "Factura luz", Amount: dec(3200), ExpenseCategoryID: power.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, bill.ExpenseCategoryID)
	_, err = svc.Create(ctx, domain.CreateRequest{Description: "Papelería", Amount: dec(500)})
	require.NoError(t, err)

	filed, err := svc.List(ctx, domain.ListRequest{ExpenseCategoryID: power.ID.String()})
	require.NoError(t, err)
	require.Len(t, filed, 1)
	assert.Equal(t, bill.ID, filed[0].ID)

	none := ""
	cleared, err := svc.Update(ctx, bill.ID.String(), domain.UpdateRequest{ExpenseCategoryID: &none})
	require.NoError(t, err)
	assert.Nil(t, cleared.ExpenseCategoryID)

	stored, err := svc.Get(ctx, bill.ID.String())
	require.NoError(t, err)
	assert.Nil(t, stored.ExpenseCategoryID)
}
