package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/smallbiznis/villadesk/internal/invoicesequence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:invoiceseq_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Sequence{}, &domain.Claim{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, repo domain.Repository, cfg config.InvoicingConfig) *Service {
	t.Helper()
	if repo == nil {
		repo = repository.Provide()
	}
	return New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:   repo,
		Config: config.NewStaticInvoicingConfig(cfg),
	}).(*Service)
}

func claim(t *testing.T, svc *Service, number string, sourceType domain.SourceType, id int64) {
	t.Helper()
	require.NoError(t, svc.Claim(context.Background(), nil, number, sourceType, snowflake.ID(id)))
}

func TestAllocateNextStartsAtDefaultAndAdvances(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	first, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1600", first)

	second, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1601", second)

	state, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1602), state.CurrentNumber)
}

func TestManualNumberLeavesCursorUntouched(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()
	admin := actor.Actor{UserID: 1, Role: actor.RoleAdmin}

	for range 2 {
		_, err := svc.AllocateNext(ctx, nil)
		require.NoError(t, err)
	}

	number, err := svc.Resolve(ctx, nil, admin, "9999")
	require.NoError(t, err)
	assert.Equal(t, "9999", number)
	claim(t, svc, number, domain.SourceReservation, 10)

	next, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1602", next)
}

func TestAllocateNextSkipsClaimedNumbers(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	claim(t, svc, "1600", domain.SourceReservation, 1)
	claim(t, svc, "1601", domain.SourceReservationInstallment, 2)
	claim(t, svc, "1603", domain.SourceExpenseInstallment, 3)

	got, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1602", got)

	available, err := svc.ValidateAvailable(ctx, nil, got)
	require.NoError(t, err)
	assert.True(t, available, "allocation happens before the claim is written")

	claim(t, svc, got, domain.SourceReservation, 4)
	got, err = svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1604", got)
}

func TestAllocateNextExhausted(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.DefaultInvoicingConfig()
	cfg.Sequence.MaxProbe = 3
	svc := newTestService(t, db, nil, cfg)

	for i, n := range []string{"1600", "1601", "1602"} {
		claim(t, svc, n, domain.SourceReservation, int64(i+1))
	}

	_, err := svc.AllocateNext(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrSequenceExhausted)
}

func TestResolveManualNumber(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()
	admin := actor.Actor{UserID: 1, Role: actor.RoleAdmin}
	employee := actor.Actor{UserID: 2, Role: actor.RoleEmployee}

	_, err := svc.Resolve(ctx, nil, employee, "5000")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	claim(t, svc, "5000", domain.SourceReservation, 1)
	_, err = svc.Resolve(ctx, nil, admin, "5000")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err := svc.Resolve(ctx, nil, employee, "")
	require.NoError(t, err)
	assert.Equal(t, "1600", got)
}

func TestClaimRejectsDuplicateAcrossSources(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	claim(t, svc, "1700", domain.SourceReservation, 1)
	err := svc.Claim(ctx, nil, "1700", domain.SourceExpenseInstallment, 2)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, svc.Release(ctx, nil, "1700", domain.SourceReservation, 1))
	require.NoError(t, svc.Claim(ctx, nil, "1700", domain.SourceExpenseInstallment, 2))
}

func TestReleaseAllBySource(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	claim(t, svc, "1", domain.SourceReservationInstallment, 1)
	claim(t, svc, "2", domain.SourceReservationInstallment, 2)
	claim(t, svc, "3", domain.SourceExpenseInstallment, 2)

	require.NoError(t, svc.ReleaseAll(ctx, nil, domain.SourceReservationInstallment, []snowflake.ID{1, 2}))

	for number, want := range map[string]bool{"1": true, "2": true, "3": false} {
		available, err := svc.ValidateAvailable(ctx, nil, number)
		require.NoError(t, err)
		assert.Equal(t, want, available, number)
	}
}

// racingRepo moves the cursor behind the allocator's back before the first
// compare-and-swap, the way a concurrent request would.
type racingRepo struct {
	domain.Repository
	raced int
}

func (r *racingRepo) CompareAndSwap(ctx context.Context, db *gorm.DB, expected, next int64, now time.Time) (bool, error) {
	if r.raced == 0 {
		r.raced++
		if err := r.Repository.SetCurrent(ctx, db, next, now); err != nil {
			return false, err
		}
		if err := r.Repository.InsertClaim(ctx, db, &domain.Claim{
			Number:     fmt.Sprint(expected),
			SourceType: domain.SourceReservation,
			SourceID:   99,
			CreatedAt:  now,
		}); err != nil {
			return false, err
		}
	}
	return r.Repository.CompareAndSwap(ctx, db, expected, next, now)
}

func TestAllocateNextRetriesWhenCursorMoves(t *testing.T) {
	db := setupTestDB(t)
	repo := &racingRepo{Repository: repository.Provide()}
	svc := newTestService(t, db, repo, config.DefaultInvoicingConfig())

	got, err := svc.AllocateNext(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1601", got, "the number won by the concurrent writer must not be reused")
	assert.Equal(t, 1, repo.raced)
}

// stuckRepo never lets the compare-and-swap succeed.
type stuckRepo struct {
	domain.Repository
	calls int
}

func (r *stuckRepo) CompareAndSwap(context.Context, *gorm.DB, int64, int64, time.Time) (bool, error) {
	r.calls++
	return false, nil
}

func TestAllocateNextGivesUpAfterRetries(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.DefaultInvoicingConfig()
	cfg.Sequence.CASRetries = 2
	repo := &stuckRepo{Repository: repository.Provide()}
	svc := newTestService(t, db, repo, cfg)

	_, err := svc.AllocateNext(context.Background(), nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 3, repo.calls)
}

func TestAllocateInsideRolledBackTransaction(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	_ = db.Transaction(func(tx *gorm.DB) error {
		number, err := svc.AllocateNext(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, "1600", number)
		return fmt.Errorf("abort")
	})

	got, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1600", got)
}

func TestSetStartAndReset(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	_, err := svc.SetStart(ctx, 0)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	state, err := svc.SetStart(ctx, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), state.CurrentNumber)

	got, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "2000", got)

	_, err = svc.Reset(ctx, false)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	state, err = svc.Reset(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1600), state.CurrentNumber)

	claim(t, svc, "1600", domain.SourceReservation, 1)
	_, err = svc.Reset(ctx, true)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	state, err = svc.SetStart(ctx, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.ReservationsCount)
}

func TestRegistryIsOnlySourceOfTakenNumbers(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, nil, config.DefaultInvoicingConfig())
	ctx := context.Background()

	// A numbered row written without a claim does not reserve its number.
	require.NoError(t, db.Exec(`CREATE TABLE reservations (id INTEGER PRIMARY KEY, invoice_number TEXT)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO reservations (id, invoice_number) VALUES (1, '1600')`).Error)

	available, err := svc.ValidateAvailable(ctx, nil, "1600")
	require.NoError(t, err)
	assert.True(t, available)

	got, err := svc.AllocateNext(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "1600", got)

	claim(t, svc, "1601", domain.SourceReservation, 2)
	available, err = svc.ValidateAvailable(ctx, nil, "1601")
	require.NoError(t, err)
	assert.False(t, available)
}
