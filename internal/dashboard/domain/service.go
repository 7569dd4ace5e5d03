package domain

import (
	"context"

	"github.com/shopspring/decimal"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
)

// Amounts keeps the two currencies apart; they are never converted.
type Amounts struct {
	DOP decimal.Decimal `json:"dop"`
	USD decimal.Decimal `json:"usd"`
}

type Commitments struct {
	Count        int64   `json:"count"`
	Total        Amounts `json:"total"`
	PaidCount    int64   `json:"paid_count"`
	PendingCount int64   `json:"pending_count"`
	OverdueCount int64   `json:"overdue_count"`
}

type Stats struct {
	TotalReservations   int64   `json:"total_reservations"`
	PendingReservations int64   `json:"pending_reservations"`
	Revenue             Amounts `json:"revenue"`
	PendingPayments     Amounts `json:"pending_payments"`
	Expenses            Amounts `json:"expenses"`

	TotalOwners      int64           `json:"total_owners"`
	OwnersBalanceDue decimal.Decimal `json:"owners_balance_due"`

	RecentReservations         []reservationdomain.Reservation `json:"recent_reservations"`
	PendingPaymentReservations []reservationdomain.Reservation `json:"pending_payment_reservations"`

	Commitments Commitments `json:"commitments"`
}

type Service interface {
	Stats(ctx context.Context) (Stats, error)
}
