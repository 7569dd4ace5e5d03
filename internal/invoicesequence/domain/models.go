package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SingletonID is the key of the only invoice_sequences row.
const SingletonID = "main"

// Sequence stores the next candidate invoice number.
type Sequence struct {
	ID            string    `gorm:"primaryKey;size:32" json:"-"`
	CurrentNumber int64     `gorm:"not null" json:"current_number"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Sequence) TableName() string { return "invoice_sequences" }

type SourceType string

const (
	SourceReservation            SourceType = "reservation"
	SourceReservationInstallment SourceType = "reservation_installment"
	SourceExpenseInstallment     SourceType = "expense_installment"
)

// Claim records that an invoice number is in use. Reservations and both kinds
// of installments share this table, so its primary key enforces global
// uniqueness of invoice numbers.
type Claim struct {
	Number     string       `gorm:"primaryKey;size:64" json:"number"`
	SourceType SourceType   `gorm:"size:32;not null;index:idx_invoice_numbers_source" json:"source_type"`
	SourceID   snowflake.ID `gorm:"not null;index:idx_invoice_numbers_source" json:"source_id"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Claim) TableName() string { return "invoice_numbers" }

type State struct {
	CurrentNumber     int64     `json:"current_number"`
	ReservationsCount int64     `json:"reservations_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}
