package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/installment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertReservationInstallment(ctx context.Context, db *gorm.DB, inst *domain.ReservationInstallment) error {
	return db.WithContext(ctx).Create(inst).Error
}

func (r *repo) FindReservationInstallment(ctx context.Context, db *gorm.DB, reservationID, id snowflake.ID) (*domain.ReservationInstallment, error) {
	var inst domain.ReservationInstallment
	err := db.WithContext(ctx).
		Where("id = ? AND reservation_id = ?", id, reservationID).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}

func (r *repo) ListReservationInstallments(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]*domain.ReservationInstallment, error) {
	var items []*domain.ReservationInstallment
	err := db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("payment_date asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) DeleteReservationInstallment(ctx context.Context, db *gorm.DB, reservationID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM reservation_installments WHERE id = ? AND reservation_id = ?`,
		id, reservationID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertExpenseInstallment(ctx context.Context, db *gorm.DB, inst *domain.ExpenseInstallment) error {
	return db.WithContext(ctx).Create(inst).Error
}

func (r *repo) FindExpenseInstallment(ctx context.Context, db *gorm.DB, expenseID, id snowflake.ID) (*domain.ExpenseInstallment, error) {
	var inst domain.ExpenseInstallment
	err := db.WithContext(ctx).
		Where("id = ? AND expense_id = ?", id, expenseID).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}

func (r *repo) ListExpenseInstallments(ctx context.Context, db *gorm.DB, expenseID snowflake.ID) ([]*domain.ExpenseInstallment, error) {
	var items []*domain.ExpenseInstallment
	err := db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("payment_date asc, id asc").
		Find(&items).Error
	return items, err
}

func (r *repo) DeleteExpenseInstallment(ctx context.Context, db *gorm.DB, expenseID, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM expense_installments WHERE id = ? AND expense_id = ?`,
		id, expenseID,
	)
	return result.RowsAffected, result.Error
}
