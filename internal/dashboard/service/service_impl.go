package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/balance"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/dashboard/domain"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	recentLimit  = 5
	pendingLimit = 10
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
	}
}

type currencyRow struct {
	Currency string
	Paid     decimal.Decimal
	Due      decimal.Decimal
	Count    int64
	Pending  int64
}

type expenseRow struct {
	Currency string
	Total    decimal.Decimal
}

type ownerRow struct {
	Count   int64
	Balance decimal.Decimal
}

type commitmentRow struct {
	Currency string
	Count    int64
	Total    decimal.Decimal
	Paid     int64
	Pending  int64
	Overdue  int64
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var (
		stats       domain.Stats
		reservRows  []currencyRow
		expenseRows []expenseRow
		owners      ownerRow
		commitRows  []commitmentRow
		recent      []reservationdomain.Reservation
		pending     []reservationdomain.Reservation
	)

	now := s.clock.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	db := s.db.WithContext(ctx)
	queries := []func() error{
		func() error {
			return db.Raw(
				`SELECT currency,
				        COALESCE(SUM(amount_paid), 0) AS paid,
				        COALESCE(SUM(balance_due), 0) AS due,
				        COUNT(*) AS count,
				        SUM(CASE WHEN balance_due > 0 THEN 1 ELSE 0 END) AS pending
				 FROM reservations
				 GROUP BY currency`,
			).Scan(&reservRows).Error
		},
		func() error {
			return db.Raw(
				`SELECT currency, COALESCE(SUM(amount), 0) AS total
				 FROM expenses
				 GROUP BY currency`,
			).Scan(&expenseRows).Error
		},
		func() error {
			return db.Raw(
				`SELECT COUNT(*) AS count, COALESCE(SUM(balance_due), 0) AS balance FROM villa_owners`,
			).Scan(&owners).Error
		},
		func() error {
			return db.Raw(
				`SELECT currency,
				        COUNT(*) AS count,
				        COALESCE(SUM(amount), 0) AS total,
				        SUM(CASE WHEN payment_status = ? THEN 1 ELSE 0 END) AS paid,
				        SUM(CASE WHEN payment_status = ? THEN 1 ELSE 0 END) AS pending,
				        SUM(CASE WHEN payment_status = ? AND expense_date < ? THEN 1 ELSE 0 END) AS overdue
				 FROM expenses
				 WHERE category = ? AND expense_date >= ? AND expense_date < ?
				 GROUP BY currency`,
				balance.StatusPaid, balance.StatusPending, balance.StatusPending, today,
				expensedomain.CategoryCommitment, monthStart, nextMonth,
			).Scan(&commitRows).Error
		},
		func() error {
			return db.Model(&reservationdomain.Reservation{}).
				Order("created_at desc, id desc").
				Limit(recentLimit).
				Find(&recent).Error
		},
		func() error {
			return db.Model(&reservationdomain.Reservation{}).
				Where("balance_due > 0").
				Order("created_at desc, id desc").
				Limit(pendingLimit).
				Find(&pending).Error
		},
	}
	for _, query := range queries {
		if err := query(); err != nil {
			s.log.Error("dashboard stats failed", zap.Error(err))
			return domain.Stats{}, err
		}
	}

	for _, row := range reservRows {
		stats.TotalReservations += row.Count
		stats.PendingReservations += row.Pending
		add(&stats.Revenue, row.Currency, row.Paid)
		add(&stats.PendingPayments, row.Currency, row.Due)
	}
	for _, row := range expenseRows {
		add(&stats.Expenses, row.Currency, row.Total)
	}
	for _, row := range commitRows {
		stats.Commitments.Count += row.Count
		stats.Commitments.PaidCount += row.Paid
		stats.Commitments.PendingCount += row.Pending
		stats.Commitments.OverdueCount += row.Overdue
		add(&stats.Commitments.Total, row.Currency, row.Total)
	}
	stats.TotalOwners = owners.Count
	stats.OwnersBalanceDue = owners.Balance
	stats.RecentReservations = nonNil(recent)
	stats.PendingPaymentReservations = nonNil(pending)
	return stats, nil
}

func add(a *domain.Amounts, currency string, amount decimal.Decimal) {
	switch balance.Currency(currency) {
	case balance.CurrencyUSD:
		a.USD = a.USD.Add(amount)
	default:
		a.DOP = a.DOP.Add(amount)
	}
}

func nonNil(items []reservationdomain.Reservation) []reservationdomain.Reservation {
	if items == nil {
		return []reservationdomain.Reservation{}
	}
	return items
}
