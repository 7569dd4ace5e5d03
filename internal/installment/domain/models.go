package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Payment holds the fields every installment carries regardless of what it
// pays down.
type Payment struct {
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod string          `gorm:"size:16;not null" json:"payment_method"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	InvoiceNumber string          `gorm:"size:64;not null;uniqueIndex" json:"invoice_number"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `gorm:"size:32" json:"created_by"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

type ReservationInstallment struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ReservationID snowflake.ID `gorm:"not null;index" json:"reservation_id"`
	Payment
}

func (ReservationInstallment) TableName() string { return "reservation_installments" }

type ExpenseInstallment struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ExpenseID snowflake.ID `gorm:"not null;index" json:"expense_id"`
	Payment
}

func (ExpenseInstallment) TableName() string { return "expense_installments" }
