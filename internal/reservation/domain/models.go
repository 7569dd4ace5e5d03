package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus defaults to confirmed, which is how reservations are taken at
// the front desk.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusConfirmed, "":
		return StatusConfirmed, true
	case StatusPending:
		return StatusPending, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	default:
		return "", false
	}
}

type ExtraServiceLine struct {
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type Reservation struct {
	ID               snowflake.ID           `gorm:"primaryKey" json:"id"`
	InvoiceNumber    string                 `gorm:"size:64;not null;uniqueIndex" json:"invoice_number"`
	CustomerID       snowflake.ID           `gorm:"not null;index" json:"customer_id"`
	CustomerName     string                 `gorm:"not null" json:"customer_name"`
	VillaID          *snowflake.ID          `gorm:"index" json:"villa_id,omitempty"`
	VillaCode        string                 `gorm:"size:64" json:"villa_code"`
	VillaDescription string                 `json:"villa_description,omitempty"`
	RentalType       villadomain.RentalType `gorm:"size:16;not null" json:"rental_type"`
	EventType        string                 `json:"event_type,omitempty"`
	ReservationDate  time.Time              `gorm:"not null;index" json:"reservation_date"`
	CheckInTime      string                 `gorm:"size:16" json:"check_in_time"`
	CheckOutTime     string                 `gorm:"size:16" json:"check_out_time"`
	Guests           int                    `gorm:"not null" json:"guests"`

	BasePrice          decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"base_price"`
	OwnerPrice         decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"owner_price"`
	ExtraHours         decimal.Decimal                       `gorm:"type:numeric(8,2);not null" json:"extra_hours"`
	ExtraHoursCost     decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"extra_hours_cost"`
	ExtraServices      datatypes.JSONSlice[ExtraServiceLine] `json:"extra_services"`
	ExtraServicesTotal decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"extra_services_total"`
	Subtotal           decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	Discount           decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"discount"`
	IncludeTax         bool                                  `gorm:"not null" json:"include_tax"`
	TaxAmount          decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"tax_amount"`
	TotalAmount        decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Deposit            decimal.Decimal                       `gorm:"type:numeric(14,2);not null" json:"deposit"`
	// InitialAmountPaid is what was paid outside installments. AmountPaid
	// is always InitialAmountPaid plus the installment sum.
	InitialAmountPaid decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"initial_amount_paid"`
	AmountPaid        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount_paid"`
	BalanceDue        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance_due"`

	Currency       string    `gorm:"size:3;not null" json:"currency"`
	PaymentMethod  string    `gorm:"size:16;not null" json:"payment_method"`
	PaymentDetails string    `json:"payment_details,omitempty"`
	Status         Status    `gorm:"size:16;not null;index" json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CreatedBy      string    `gorm:"size:32" json:"created_by"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	CustomerIdentification string `gorm:"-" json:"customer_identification_document,omitempty"`
}
