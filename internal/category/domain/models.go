package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind separates villa groupings from expense groupings. They live in
// different tables and are referenced from different records.
type Kind string

const (
	KindVilla   Kind = "villa"
	KindExpense Kind = "expense"
)

func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindVilla:
		return KindVilla, true
	case KindExpense:
		return KindExpense, true
	default:
		return "", false
	}
}

// Table is where categories of this kind are stored.
func (k Kind) Table() string {
	if k == KindExpense {
		return ExpenseCategory{}.TableName()
	}
	return VillaCategory{}.TableName()
}

// Reference names the table and column that point at a category of this kind.
func (k Kind) Reference() (table, column string) {
	if k == KindExpense {
		return "expenses", "expense_category_id"
	}
	return "villas", "category_id"
}

type Category struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description,omitempty"`
	IsActive    bool         `gorm:"not null" json:"is_active"`
	CreatedBy   string       `gorm:"size:32" json:"created_by"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// VillaCategory and ExpenseCategory only exist so the schema can be
// migrated from models; queries go through Category and Kind.Table.
type VillaCategory Category

func (VillaCategory) TableName() string { return "categories" }

type ExpenseCategory Category

func (ExpenseCategory) TableName() string { return "expense_categories" }
