package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	Category          Category
	ExpenseCategoryID *snowflake.ID
	Search            string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, expense *Expense) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Expense, error)
	// FindPayout returns the oldest expense linked to the reservation.
	FindPayout(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) (*Expense, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Expense, error)
	IDsByReservation(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]snowflake.ID, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Expense, error)
	Update(ctx context.Context, db *gorm.DB, expense *Expense) error
	SetPaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error)

	// Installment rows are owned by the installment manager; these read and
	// cascade them by expense.
	SumInstallments(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) (map[snowflake.ID]decimal.Decimal, error)
	InstallmentIDs(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) ([]snowflake.ID, error)
	DeleteInstallments(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) error
}
