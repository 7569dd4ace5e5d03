package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Owner is the payable ledger of a villa owner. BalanceDue always equals
// TotalOwed - AmountPaid and may go negative on overpayment.
type Owner struct {
	ID         snowflake.ID                `gorm:"primaryKey" json:"id"`
	OwnerKey   string                      `gorm:"size:128;not null;uniqueIndex" json:"owner_key"`
	Name       string                      `gorm:"not null" json:"name"`
	Phone      string                      `json:"phone,omitempty"`
	Email      string                      `json:"email,omitempty"`
	Villas     datatypes.JSONSlice[string] `json:"villas"`
	Commission decimal.Decimal             `gorm:"column:commission_percentage;type:numeric(5,2);not null" json:"commission_percentage"`
	TotalOwed  decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"total_owed"`
	AmountPaid decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amount_paid"`
	BalanceDue decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"balance_due"`
	Notes      string                      `json:"notes,omitempty"`
	CreatedBy  string                      `gorm:"size:32" json:"created_by"`
	CreatedAt  time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Owner) TableName() string { return "villa_owners" }

type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OwnerID       snowflake.ID    `gorm:"not null;index" json:"owner_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod string          `gorm:"size:16;not null" json:"payment_method"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `gorm:"size:32" json:"created_by"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "owner_payments" }
