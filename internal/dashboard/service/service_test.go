package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/clock"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	ownerdomain "github.com/smallbiznis/villadesk/internal/owner/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestStatsSeparatesCurrencies(t *testing.T) {
	dsn := fmt.Sprintf("file:dashboard_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&reservationdomain.Reservation{}, &expensedomain.Expense{}, &ownerdomain.Owner{}))

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	reservation := func(id int64, currency string, total, paid int64) reservationdomain.Reservation {
		return reservationdomain.Reservation{
			ID:              snowflakeID(id),
			InvoiceNumber:   fmt.Sprint(1600 + id),
			CustomerID:      1,
			CustomerName:    "Cliente",
			RentalType:      villadomain.RentalShortStay,
			ReservationDate: now,
			Guests:          1,
			TotalAmount:     dec(total),
			AmountPaid:      dec(paid),
			BalanceDue:      dec(total - paid),
			Currency:        currency,
			PaymentMethod:   "cash",
			Status:          reservationdomain.StatusConfirmed,
			CreatedAt:       now.Add(time.Duration(id) * time.Minute),
			UpdatedAt:       now,
		}
	}
	rows := []reservationdomain.Reservation{
		reservation(1, "DOP", 10000, 4000),
		reservation(2, "DOP", 5000, 5000),
		reservation(3, "USD", 300, 100),
	}
	require.NoError(t, db.Create(&rows).Error)

	expense := func(id int64, category expensedomain.Category, currency string, amount int64, status string, date time.Time) expensedomain.Expense {
		return expensedomain.Expense{
			ID:            snowflakeID(100 + id),
			Category:      category,
			Description:   "gasto",
			Amount:        dec(amount),
			Currency:      currency,
			ExpenseDate:   date,
			PaymentStatus: status,
			ExpenseType:   expensedomain.TypeFixed,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	expenses := []expensedomain.Expense{
		expense(1, expensedomain.CategoryLocal, "DOP", 1500, "paid", now),
		expense(2, expensedomain.CategoryCommitment, "DOP", 2000, "pending", now.AddDate(0, 0, -10)),
		expense(3, expensedomain.CategoryCommitment, "USD", 50, "paid", now.AddDate(0, 0, 5)),
		expense(4, expensedomain.CategoryCommitment, "DOP", 900, "pending", now.AddDate(0, -1, 0)),
	}
	require.NoError(t, db.Create(&expenses).Error)

	require.NoError(t, db.Create(&ownerdomain.Owner{
		ID:         snowflakeID(500),
		OwnerKey:   "propietario-abc123",
		Name:       "Propietario ABC123",
		TotalOwed:  dec(8000),
		AmountPaid: dec(3000),
		BalanceDue: dec(5000),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)

	svc := New(Params{DB: db, Log: zap.NewNop(), Clock: clock.NewFakeClock(now)})
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalReservations)
	assert.Equal(t, int64(2), stats.PendingReservations)
	assert.True(t, stats.Revenue.DOP.Equal(dec(9000)), "revenue dop %s", stats.Revenue.DOP)
	assert.True(t, stats.Revenue.USD.Equal(dec(100)))
	assert.True(t, stats.PendingPayments.DOP.Equal(dec(6000)))
	assert.True(t, stats.PendingPayments.USD.Equal(dec(200)))
	assert.True(t, stats.Expenses.DOP.Equal(dec(4400)))
	assert.True(t, stats.Expenses.USD.Equal(dec(50)))

	assert.Equal(t, int64(1), stats.TotalOwners)
	assert.True(t, stats.OwnersBalanceDue.Equal(dec(5000)))

	require.Len(t, stats.RecentReservations, 3)
	assert.Equal(t, snowflakeID(3), stats.RecentReservations[0].ID)
	assert.Len(t, stats.PendingPaymentReservations, 2)

	assert.Equal(t, int64(2), stats.Commitments.Count)
	assert.Equal(t, int64(1), stats.Commitments.PaidCount)
	assert.Equal(t, int64(1), stats.Commitments.PendingCount)
	assert.Equal(t, int64(1), stats.Commitments.OverdueCount)
	assert.True(t, stats.Commitments.Total.DOP.Equal(dec(2000)))
	assert.True(t, stats.Commitments.Total.USD.Equal(dec(50)))
}

func TestStatsOnEmptyDatabase(t *testing.T) {
	dsn := fmt.Sprintf("file:dashboard_empty_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&reservationdomain.Reservation{}, &expensedomain.Expense{}, &ownerdomain.Owner{}))

	svc := New(Params{DB: db, Log: zap.NewNop(), Clock: clock.NewFakeClock(time.Now())})
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReservations)
	assert.True(t, stats.Revenue.DOP.IsZero())
	assert.NotNil(t, stats.RecentReservations)
}

func snowflakeID(v int64) snowflake.ID { return snowflake.ID(v) }
