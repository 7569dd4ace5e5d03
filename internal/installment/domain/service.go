package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
)

type AddRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Notes         string          `json:"notes"`
	// InvoiceNumber may only be set by admins.
	InvoiceNumber sequencedomain.ManualNumber `json:"invoice_number"`
}

// Service records partial payments (abonos). Every add and remove recomputes
// the parent's paid totals from the full installment set.
type Service interface {
	AddToReservation(ctx context.Context, reservationID string, req AddRequest) (ReservationInstallment, reservationdomain.Reservation, error)
	ListForReservation(ctx context.Context, reservationID string) ([]ReservationInstallment, error)
	GetForReservation(ctx context.Context, reservationID, installmentID string) (ReservationInstallment, error)
	RemoveFromReservation(ctx context.Context, reservationID, installmentID string) (reservationdomain.Reservation, error)

	AddToExpense(ctx context.Context, expenseID string, req AddRequest) (ExpenseInstallment, expensedomain.Expense, error)
	ListForExpense(ctx context.Context, expenseID string) ([]ExpenseInstallment, error)
	GetForExpense(ctx context.Context, expenseID, installmentID string) (ExpenseInstallment, error)
	RemoveFromExpense(ctx context.Context, expenseID, installmentID string) (expensedomain.Expense, error)
}

var (
	ErrNotFound        = apperror.NotFound("installment_not_found", "installment not found")
	ErrInvalidID       = apperror.Invalid("id", "invalid_id", "invalid installment id")
	ErrInvalidAmount   = apperror.Invalid("amount", "invalid_amount", "amount must be greater than zero")
	ErrInvalidCurrency = apperror.Invalid("currency", "invalid_currency", "unknown currency")
	ErrInvalidMethod   = apperror.Invalid("payment_method", "invalid_payment_method", "unknown payment method")
)
