package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Category           string          `json:"category"`
	ExpenseCategoryID  string          `json:"expense_category_id"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	ExpenseDate        *time.Time      `json:"expense_date"`
	PaymentStatus      string          `json:"payment_status"`
	ExpenseType        string          `json:"expense_type"`
	Notes              string          `json:"notes"`
	ReservationCheckIn *time.Time      `json:"reservation_check_in"`
	Reminder           *Reminder       `json:"reminder"`
}

type UpdateRequest struct {
	Category           *string          `json:"category"`
	// ExpenseCategoryID set to "" unassigns the category.
	ExpenseCategoryID  *string          `json:"expense_category_id"`
	Description        *string          `json:"description"`
	Amount             *decimal.Decimal `json:"amount"`
	Currency           *string          `json:"currency"`
	ExpenseDate        *time.Time       `json:"expense_date"`
	PaymentStatus      *string          `json:"payment_status"`
	ExpenseType        *string          `json:"expense_type"`
	Notes              *string          `json:"notes"`
	ReservationCheckIn *time.Time       `json:"reservation_check_in"`
	Reminder           *Reminder        `json:"reminder"`
}

type ListRequest struct {
	Category          string
	ExpenseCategoryID string
	Search            string
}

// PayoutRequest describes the owner-payout expense of one reservation.
type PayoutRequest struct {
	ReservationID snowflake.ID
	VillaCode     string
	InvoiceNumber string
	CustomerName  string
	Amount        decimal.Decimal
	Currency      string
	ExpenseDate   time.Time
	CheckIn       *time.Time
	CreatedBy     string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Expense, error)
	List(ctx context.Context, req ListRequest) ([]Expense, error)
	Get(ctx context.Context, id string) (Expense, error)
	Update(ctx context.Context, id string, req UpdateRequest) (Expense, error)
	Delete(ctx context.Context, id string) error

	// EnsurePayout creates the payout expense unless an expense already
	// references the reservation. It runs on tx and reports whether a row was created.
	EnsurePayout(ctx context.Context, tx *gorm.DB, req PayoutRequest) (Expense, bool, error)
	// DeleteByReservation removes every expense linked to the reservation
	// together with their installments and invoice claims.
	DeleteByReservation(ctx context.Context, tx *gorm.DB, reservationID snowflake.ID) (int64, error)
}

var (
	ErrNotFound        = apperror.NotFound("expense_not_found", "expense not found")
	ErrInvalidID       = apperror.Invalid("id", "invalid_id", "invalid expense id")
	ErrInvalidCategory = apperror.Invalid("category", "invalid_category", "unknown expense category")
	ErrInvalidType     = apperror.Invalid("expense_type", "invalid_expense_type", "unknown expense type")
	ErrInvalidStatus   = apperror.Invalid("payment_status", "invalid_payment_status", "payment status must be pending or paid")
	ErrInvalidAmount   = apperror.Invalid("amount", "invalid_amount", "amount must be greater than zero")
	ErrInvalidCurrency = apperror.Invalid("currency", "invalid_currency", "unknown currency")
	ErrInvalidDesc     = apperror.Invalid("description", "invalid_description", "description is required")
	ErrInvalidReminder = apperror.Invalid("reminder", "invalid_reminder", "reminder day must be between 1 and 31")
	ErrInvalidGroupID  = apperror.Invalid("expense_category_id", "invalid_expense_category_id", "invalid expense category id")
	ErrPayoutLocked    = apperror.Conflict("payout_expense_locked", "category and amount of a reservation payout cannot be changed")
)
