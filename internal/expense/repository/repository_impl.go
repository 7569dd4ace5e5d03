package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/expense/domain"
	"github.com/smallbiznis/villadesk/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const expenseColumns = `id, category, expense_category_id, description, amount, currency, expense_date, payment_status, expense_type, notes,
	related_reservation_id, reservation_check_in, reminder, created_by, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.Category,
		expense.ExpenseCategoryID,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.ExpenseDate,
		expense.PaymentStatus,
		expense.ExpenseType,
		expense.Notes,
		expense.RelatedReservationID,
		expense.ReservationCheckIn,
		expense.Reminder,
		expense.CreatedBy,
		expense.CreatedAt,
		expense.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Expense, error) {
	return r.findOne(ctx, db, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Expense, error) {
	var expenses []*domain.Expense
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, nil
	}
	return expenses[0], nil
}

func (r *repo) FindPayout(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) (*domain.Expense, error) {
	return r.findOne(ctx, db,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE related_reservation_id = ?
		 ORDER BY created_at ASC
		 LIMIT 1`,
		reservationID,
	)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Expense, error) {
	var rows []*domain.Expense
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *repo) IDsByReservation(ctx context.Context, db *gorm.DB, reservationID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM expenses WHERE related_reservation_id = ?`,
		reservationID,
	).Scan(&ids).Error
	return ids, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Expense, error) {
	stmt := db.WithContext(ctx).Model(&domain.Expense{})
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.ExpenseCategoryID != nil {
		stmt = stmt.Where("expense_category_id = ?", *filter.ExpenseCategoryID)
	}
	stmt = option.WithSearch(filter.Search, "description", "notes").Apply(stmt)

	var expenses []*domain.Expense
	if err := stmt.Order("expense_date desc, id desc").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Exec(
		`UPDATE expenses
		 SET category = ?, expense_category_id = ?, description = ?, amount = ?, currency = ?, expense_date = ?, payment_status = ?,
		     expense_type = ?, notes = ?, reservation_check_in = ?, reminder = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Category,
		expense.ExpenseCategoryID,
		expense.Description,
		expense.Amount,
		expense.Currency,
		expense.ExpenseDate,
		expense.PaymentStatus,
		expense.ExpenseType,
		expense.Notes,
		expense.ReservationCheckIn,
		expense.Reminder,
		expense.UpdatedAt,
		expense.ID,
	).Error
}

func (r *repo) SetPaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE expenses SET payment_status = ?, updated_at = ? WHERE id = ?`,
		status, at, id,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(`DELETE FROM expenses WHERE id IN ?`, ids)
	return result.RowsAffected, result.Error
}

type installmentTotal struct {
	ExpenseID snowflake.ID
	Total     decimal.Decimal
}

func (r *repo) SumInstallments(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) (map[snowflake.ID]decimal.Decimal, error) {
	totals := make(map[snowflake.ID]decimal.Decimal, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return totals, nil
	}

	var rows []installmentTotal
	err := db.WithContext(ctx).Raw(
		`SELECT expense_id, COALESCE(SUM(amount), 0) AS total
		 FROM expense_installments
		 WHERE expense_id IN ?
		 GROUP BY expense_id`,
		expenseIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ExpenseID] = row.Total
	}
	return totals, nil
}

func (r *repo) InstallmentIDs(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(expenseIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM expense_installments WHERE expense_id IN ?`,
		expenseIDs,
	).Scan(&ids).Error
	return ids, err
}

func (r *repo) DeleteInstallments(ctx context.Context, db *gorm.DB, expenseIDs []snowflake.ID) error {
	if len(expenseIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM expense_installments WHERE expense_id IN ?`,
		expenseIDs,
	).Error
}
