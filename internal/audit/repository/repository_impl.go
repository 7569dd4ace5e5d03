package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/villadesk/internal/audit/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert appends an entry. The trail is never rewritten.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List pages newest first. It fetches one row past the limit so the caller
// can tell whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.AuditLog{}).
		Scopes(matching(filter))

	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var logs []*domain.AuditLog
	if err := stmt.Order("created_at desc, id desc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Trail returns every entry recorded against one reservation, expense, owner
// or user, oldest first.
func (r *repo) Trail(ctx context.Context, db *gorm.DB, targetType, targetID string) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	err := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at asc, id asc").
		Find(&logs).Error
	return logs, err
}

func matching(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(stmt *gorm.DB) *gorm.DB {
		if v := strings.TrimSpace(filter.Action); v != "" {
			stmt = stmt.Where("action = ?", v)
		}
		if v := strings.TrimSpace(filter.TargetType); v != "" {
			stmt = stmt.Where("target_type = ?", v)
		}
		if v := strings.TrimSpace(filter.TargetID); v != "" {
			stmt = stmt.Where("target_id = ?", v)
		}
		if filter.ActorType != "" {
			stmt = stmt.Where("actor_type = ?", string(filter.ActorType))
		}
		if v := strings.TrimSpace(filter.ActorID); v != "" {
			stmt = stmt.Where("actor_id = ?", v)
		}
		// Reservation, installment and payout entries carry the invoice
		// number they touched in their metadata.
		if v := strings.TrimSpace(filter.InvoiceNumber); v != "" {
			stmt = stmt.Where(datatypes.JSONQuery("metadata").Equals(v, "invoice_number"))
		}
		if filter.StartAt != nil {
			stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
		}
		if filter.EndAt != nil {
			stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
		}
		return stmt
	}
}
