package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"gorm.io/gorm"
)

type OwnerInput struct {
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	Villas     []string        `json:"villas"`
	Commission decimal.Decimal `json:"commission_percentage"`
	Notes      string          `json:"notes"`
}

type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Notes         string          `json:"notes"`
}

// Accrual adds what the business owes for one reservation to the ledger of
// the villa's owner.
type Accrual struct {
	VillaCode  string
	VillaPhone string
	Amount     decimal.Decimal
	CreatedBy  string
}

type Service interface {
	Create(ctx context.Context, req OwnerInput) (Owner, error)
	List(ctx context.Context) ([]Owner, error)
	Get(ctx context.Context, id string) (Owner, error)
	Update(ctx context.Context, id string, req OwnerInput) (Owner, error)
	Delete(ctx context.Context, id string) error

	RecordPayment(ctx context.Context, id string, req PaymentInput) (Owner, Payment, error)
	ListPayments(ctx context.Context, id string) ([]Payment, error)
	SetTotalOwed(ctx context.Context, id string, amount decimal.Decimal) (Owner, error)

	// Accrue runs inside the caller's transaction.
	Accrue(ctx context.Context, tx *gorm.DB, in Accrual) (Owner, error)
}

var (
	ErrNotFound      = apperror.NotFound("owner_not_found", "owner not found")
	ErrInvalidID     = apperror.Invalid("id", "invalid_id", "invalid owner id")
	ErrInvalidName   = apperror.Invalid("name", "invalid_name", "name is required")
	ErrInvalidAmount = apperror.Invalid("amount", "invalid_amount", "amount must be greater than zero")
	ErrInvalidComm   = apperror.Invalid("commission_percentage", "invalid_commission", "commission must be between 0 and 100")
	ErrInvalidOwed   = apperror.Invalid("total_owed", "invalid_total_owed", "total owed must be >= 0")
	ErrInvalidMethod = apperror.Invalid("payment_method", "invalid_payment_method", "unknown payment method")
	ErrInvalidCurr   = apperror.Invalid("currency", "invalid_currency", "unknown currency")
	ErrOwnerExists   = apperror.Conflict("owner_exists", "an owner with this name already exists")
)
