package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/owner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const ownerColumns = `id, owner_key, name, phone, email, villas, commission_percentage, total_owed, amount_paid, balance_due, notes, created_by, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, owner *domain.Owner) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO villa_owners (`+ownerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner.ID,
		owner.OwnerKey,
		owner.Name,
		owner.Phone,
		owner.Email,
		owner.Villas,
		owner.Commission,
		owner.TotalOwed,
		owner.AmountPaid,
		owner.BalanceDue,
		owner.Notes,
		owner.CreatedBy,
		owner.CreatedAt,
		owner.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Owner, error) {
	return r.findOne(ctx, db, `SELECT `+ownerColumns+` FROM villa_owners WHERE id = ?`, id)
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*domain.Owner, error) {
	return r.findOne(ctx, db, `SELECT `+ownerColumns+` FROM villa_owners WHERE owner_key = ?`, key)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Owner, error) {
	var owner domain.Owner
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&owner).Error; err != nil {
		return nil, err
	}
	if owner.ID == 0 {
		return nil, nil
	}
	return &owner, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Owner, error) {
	var owners []*domain.Owner
	err := db.WithContext(ctx).Raw(
		`SELECT ` + ownerColumns + ` FROM villa_owners ORDER BY name ASC, id ASC`,
	).Scan(&owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *repo) UpdateProfile(ctx context.Context, db *gorm.DB, owner *domain.Owner) error {
	return db.WithContext(ctx).Exec(
		`UPDATE villa_owners
		 SET owner_key = ?, name = ?, phone = ?, email = ?, villas = ?, commission_percentage = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		owner.OwnerKey,
		owner.Name,
		owner.Phone,
		owner.Email,
		owner.Villas,
		owner.Commission,
		owner.Notes,
		owner.UpdatedAt,
		owner.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM villa_owners WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

func (r *repo) AddOwed(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE villa_owners SET total_owed = total_owed + ?, updated_at = ? WHERE id = ?`,
		amount, at, id,
	).Error; err != nil {
		return err
	}
	return r.recomputeBalance(ctx, db, id)
}

func (r *repo) AddPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE villa_owners SET amount_paid = amount_paid + ?, updated_at = ? WHERE id = ?`,
		amount, at, id,
	).Error; err != nil {
		return err
	}
	return r.recomputeBalance(ctx, db, id)
}

func (r *repo) SetOwed(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal, at time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE villa_owners SET total_owed = ?, updated_at = ? WHERE id = ?`,
		amount, at, id,
	).Error; err != nil {
		return err
	}
	return r.recomputeBalance(ctx, db, id)
}

// A separate statement keeps the recompute independent of how the dialect
// orders assignments within one UPDATE.
func (r *repo) recomputeBalance(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE villa_owners SET balance_due = total_owed - amount_paid WHERE id = ?`,
		id,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO owner_payments (id, owner_id, amount, currency, payment_method, payment_date, notes, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OwnerID,
		payment.Amount,
		payment.Currency,
		payment.PaymentMethod,
		payment.PaymentDate,
		payment.Notes,
		payment.CreatedBy,
		payment.CreatedAt,
	).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, amount, currency, payment_method, payment_date, notes, created_by, created_at
		 FROM owner_payments
		 WHERE owner_id = ?
		 ORDER BY payment_date DESC, id DESC`,
		ownerID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) DeletePayments(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM owner_payments WHERE owner_id = ?`, ownerID).Error
}
