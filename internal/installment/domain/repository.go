package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertReservationInstallment(ctx context.Context, db *gorm.DB, inst *ReservationInstallment) error
	FindReservationInstallment(ctx context.Context, db *gorm.DB, reservationID, id snowflake.ID) (*ReservationInstallment, error)
	ListReservationInstallments(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]*ReservationInstallment, error)
	DeleteReservationInstallment(ctx context.Context, db *gorm.DB, reservationID, id snowflake.ID) (int64, error)

	InsertExpenseInstallment(ctx context.Context, db *gorm.DB, inst *ExpenseInstallment) error
	FindExpenseInstallment(ctx context.Context, db *gorm.DB, expenseID, id snowflake.ID) (*ExpenseInstallment, error)
	ListExpenseInstallments(ctx context.Context, db *gorm.DB, expenseID snowflake.ID) ([]*ExpenseInstallment, error)
	DeleteExpenseInstallment(ctx context.Context, db *gorm.DB, expenseID, id snowflake.ID) (int64, error)
}
