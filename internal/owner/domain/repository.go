package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, owner *Owner) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Owner, error)
	FindByKey(ctx context.Context, db *gorm.DB, key string) (*Owner, error)
	List(ctx context.Context, db *gorm.DB) ([]*Owner, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, owner *Owner) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)

	// AddOwed and AddPaid increment in place and recompute balance_due.
	AddOwed(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error
	AddPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error
	SetOwed(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error

	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	ListPayments(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]*Payment, error)
	DeletePayments(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) error
}
