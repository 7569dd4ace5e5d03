package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
)

type CreateRequest struct {
	CustomerID       string             `json:"customer_id"`
	VillaID          string             `json:"villa_id"`
	VillaDescription string             `json:"villa_description"`
	RentalType       string             `json:"rental_type"`
	EventType        string             `json:"event_type"`
	ReservationDate  time.Time          `json:"reservation_date"`
	CheckInTime      string             `json:"check_in_time"`
	CheckOutTime     string             `json:"check_out_time"`
	Guests           int                `json:"guests"`
	ExtraServices    []ExtraServiceLine `json:"extra_services"`

	// Nil prices fall back to the villa's prices for the rental type; nil
	// totals are computed.
	BasePrice          *decimal.Decimal `json:"base_price"`
	OwnerPrice         *decimal.Decimal `json:"owner_price"`
	ExtraHours         decimal.Decimal  `json:"extra_hours"`
	ExtraHoursCost     decimal.Decimal  `json:"extra_hours_cost"`
	ExtraServicesTotal *decimal.Decimal `json:"extra_services_total"`
	Subtotal           *decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal  `json:"discount"`
	IncludeTax         bool             `json:"include_tax"`
	TaxAmount          *decimal.Decimal `json:"tax_amount"`
	TotalAmount        *decimal.Decimal `json:"total_amount"`
	Deposit            decimal.Decimal  `json:"deposit"`
	AmountPaid         decimal.Decimal  `json:"amount_paid"`

	Currency       string `json:"currency"`
	PaymentMethod  string `json:"payment_method"`
	PaymentDetails string `json:"payment_details"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
	// InvoiceNumber may only be set by admins.
	InvoiceNumber sequencedomain.ManualNumber `json:"invoice_number"`
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	VillaDescription   *string             `json:"villa_description"`
	RentalType         *string             `json:"rental_type"`
	EventType          *string             `json:"event_type"`
	ReservationDate    *time.Time          `json:"reservation_date"`
	CheckInTime        *string             `json:"check_in_time"`
	CheckOutTime       *string             `json:"check_out_time"`
	Guests             *int                `json:"guests"`
	BasePrice          *decimal.Decimal    `json:"base_price"`
	OwnerPrice         *decimal.Decimal    `json:"owner_price"`
	ExtraHours         *decimal.Decimal    `json:"extra_hours"`
	ExtraHoursCost     *decimal.Decimal    `json:"extra_hours_cost"`
	ExtraServices      *[]ExtraServiceLine `json:"extra_services"`
	ExtraServicesTotal *decimal.Decimal    `json:"extra_services_total"`
	Subtotal           *decimal.Decimal    `json:"subtotal"`
	Discount           *decimal.Decimal    `json:"discount"`
	IncludeTax         *bool               `json:"include_tax"`
	TaxAmount          *decimal.Decimal    `json:"tax_amount"`
	TotalAmount        *decimal.Decimal    `json:"total_amount"`
	Deposit            *decimal.Decimal    `json:"deposit"`
	AmountPaid         *decimal.Decimal    `json:"amount_paid"`
	Currency           *string             `json:"currency"`
	PaymentMethod      *string             `json:"payment_method"`
	PaymentDetails     *string             `json:"payment_details"`
	Status             *string             `json:"status"`
	Notes              *string             `json:"notes"`
}

type ListRequest struct {
	Status string
}

type ReconcileResult struct {
	Scanned          int      `json:"scanned"`
	PayoutsCreated   int      `json:"payouts_created"`
	OwnersAccrued    int      `json:"owners_accrued"`
	Skipped          int      `json:"skipped"`
	RepairedInvoices []string `json:"repaired_invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Reservation, error)
	Get(ctx context.Context, id string) (Reservation, error)
	List(ctx context.Context, req ListRequest) ([]Reservation, error)
	Update(ctx context.Context, id string, req UpdateRequest) (Reservation, error)
	Delete(ctx context.Context, id string) error

	// ReconcilePayouts creates the payout expense and owner accrual of every
	// reservation that should have them and does not.
	ReconcilePayouts(ctx context.Context) (ReconcileResult, error)
}

var (
	ErrNotFound          = apperror.NotFound("reservation_not_found", "reservation not found")
	ErrVillaNotFound     = apperror.NotFound("villa_not_found", "villa not found")
	ErrInvalidID         = apperror.Invalid("id", "invalid_id", "invalid reservation id")
	ErrInvalidCustomer   = apperror.Invalid("customer_id", "invalid_customer_id", "customer_id is required")
	ErrInvalidVilla      = apperror.Invalid("villa_id", "invalid_villa_id", "invalid villa id")
	ErrInvalidDate       = apperror.Invalid("reservation_date", "invalid_reservation_date", "reservation_date is required")
	ErrInvalidRentalType = apperror.Invalid("rental_type", "invalid_rental_type", "unknown rental type")
	ErrInvalidStatus     = apperror.Invalid("status", "invalid_status", "unknown reservation status")
	ErrInvalidCurrency   = apperror.Invalid("currency", "invalid_currency", "unknown currency")
	ErrInvalidMethod     = apperror.Invalid("payment_method", "invalid_payment_method", "unknown payment method")
	ErrInvalidGuests     = apperror.Invalid("guests", "invalid_guests", "guests must be at least 1")
	ErrNegativeAmount    = apperror.Invalid("amount", "negative_amount", "monetary values cannot be negative")
	ErrInvalidExtra      = apperror.Invalid("extra_services", "invalid_extra_service", "extra service lines need a name and a quantity of at least 1")
	ErrPaidBelowInstall  = apperror.Invalid("amount_paid", "amount_paid_below_installments", "amount_paid cannot be less than the recorded installments")
	ErrReconcileRunning  = apperror.Conflict("reconcile_running", "a payout reconciliation is already running")
)
