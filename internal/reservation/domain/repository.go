package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status Status
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Reservation, error)
	// FindByIDForUpdate loads the row locked until tx ends. Writers of
	// amount_paid go through it.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	// Update writes the named columns plus updated_at.
	Update(ctx context.Context, db *gorm.DB, reservation *Reservation, columns []string) error
	SetAmountPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, amountPaid, balanceDue decimal.Decimal, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	SumInstallments(ctx context.Context, db *gorm.DB, id snowflake.ID) (decimal.Decimal, error)
	InstallmentIDs(ctx context.Context, db *gorm.DB, id snowflake.ID) ([]snowflake.ID, error)
	DeleteInstallments(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// MissingPayouts lists reservations owed to a villa owner that no
	// expense references.
	MissingPayouts(ctx context.Context, db *gorm.DB) ([]*Reservation, error)
}
