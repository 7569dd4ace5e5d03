package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category string

const (
	CategoryLocal       Category = "local"
	CategoryPayroll     Category = "payroll"
	CategoryVariable    Category = "variable"
	CategoryOwnerPayout Category = "owner-payout"
	CategoryCommitment  Category = "commitment"
	CategoryOther       Category = "other"
)

// ParseCategory accepts the fixed categories plus the configured payout
// category, which may be renamed.
func ParseCategory(raw string, payout string) (Category, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return CategoryOther, true
	}
	if payout != "" && value == strings.ToLower(payout) {
		return Category(value), true
	}
	switch Category(value) {
	case CategoryLocal, CategoryPayroll, CategoryVariable, CategoryOwnerPayout, CategoryCommitment, CategoryOther:
		return Category(value), true
	default:
		return "", false
	}
}

type ExpenseType string

const (
	TypeFixed    ExpenseType = "fixed"
	TypeVariable ExpenseType = "variable"
	TypeOneTime  ExpenseType = "one_time"
)

func ParseExpenseType(raw string) (ExpenseType, bool) {
	switch ExpenseType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeVariable, "":
		return TypeVariable, true
	case TypeFixed:
		return TypeFixed, true
	case TypeOneTime:
		return TypeOneTime, true
	default:
		return "", false
	}
}

// Reminder is the optional monthly payment reminder of a recurring expense.
type Reminder struct {
	Enabled     bool `json:"enabled"`
	DayOfMonth  int  `json:"day_of_month,omitempty"`
	IsRecurring bool `json:"is_recurring"`
}

type Expense struct {
	ID                   snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Category             Category                     `gorm:"size:32;not null;index" json:"category"`
	ExpenseCategoryID    *snowflake.ID                `gorm:"index" json:"expense_category_id,omitempty"`
	Description          string                       `gorm:"not null" json:"description"`
	Amount               decimal.Decimal              `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency             string                       `gorm:"size:3;not null" json:"currency"`
	ExpenseDate          time.Time                    `gorm:"not null;index" json:"expense_date"`
	PaymentStatus        string                       `gorm:"size:16;not null" json:"payment_status"`
	ExpenseType          ExpenseType                  `gorm:"size:16;not null" json:"expense_type"`
	Notes                string                       `json:"notes,omitempty"`
	RelatedReservationID *snowflake.ID                `gorm:"index" json:"related_reservation_id,omitempty"`
	ReservationCheckIn   *time.Time                   `json:"reservation_check_in,omitempty"`
	Reminder             datatypes.JSONType[Reminder] `json:"reminder"`
	CreatedBy            string                       `gorm:"size:32" json:"created_by"`
	CreatedAt            time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time                    `gorm:"not null" json:"updated_at"`

	TotalPaid  decimal.Decimal `gorm:"-" json:"total_paid"`
	BalanceDue decimal.Decimal `gorm:"-" json:"balance_due"`
}

// IsAutoGenerated reports whether the expense is the payout side effect of a
// reservation.
func (e Expense) IsAutoGenerated() bool {
	return e.RelatedReservationID != nil
}
