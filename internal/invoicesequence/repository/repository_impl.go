package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) EnsureSequence(ctx context.Context, db *gorm.DB, start int64, now time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Sequence{
			ID:            domain.SingletonID,
			CurrentNumber: start,
			UpdatedAt:     now,
		}).Error
}

func (r *repo) GetSequence(ctx context.Context, db *gorm.DB) (*domain.Sequence, error) {
	var seq domain.Sequence
	err := db.WithContext(ctx).Raw(
		`SELECT id, current_number, updated_at FROM invoice_sequences WHERE id = ?`,
		domain.SingletonID,
	).Scan(&seq).Error
	if err != nil {
		return nil, err
	}
	if seq.ID == "" {
		return nil, nil
	}
	return &seq, nil
}

func (r *repo) CompareAndSwap(ctx context.Context, db *gorm.DB, expected, next int64, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoice_sequences
		 SET current_number = ?, updated_at = ?
		 WHERE id = ? AND current_number = ?`,
		next,
		now,
		domain.SingletonID,
		expected,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) SetCurrent(ctx context.Context, db *gorm.DB, current int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_sequences SET current_number = ?, updated_at = ? WHERE id = ?`,
		current,
		now,
		domain.SingletonID,
	).Error
}

func (r *repo) ClaimedAmong(ctx context.Context, db *gorm.DB, numbers []string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var claimed []string
	err := db.WithContext(ctx).Raw(
		`SELECT number FROM invoice_numbers WHERE number IN ?`,
		numbers,
	).Scan(&claimed).Error
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *repo) FindClaim(ctx context.Context, db *gorm.DB, number string) (*domain.Claim, error) {
	var claim domain.Claim
	err := db.WithContext(ctx).Raw(
		`SELECT number, source_type, source_id, created_at FROM invoice_numbers WHERE number = ?`,
		number,
	).Scan(&claim).Error
	if err != nil {
		return nil, err
	}
	if claim.Number == "" {
		return nil, nil
	}
	return &claim, nil
}

func (r *repo) InsertClaim(ctx context.Context, db *gorm.DB, claim *domain.Claim) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoice_numbers (number, source_type, source_id, created_at) VALUES (?, ?, ?, ?)`,
		claim.Number,
		claim.SourceType,
		claim.SourceID,
		claim.CreatedAt,
	).Error
}

func (r *repo) DeleteClaim(ctx context.Context, db *gorm.DB, number string, sourceType domain.SourceType, sourceID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_numbers WHERE number = ? AND source_type = ? AND source_id = ?`,
		number,
		sourceType,
		sourceID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DeleteClaimsBySource(ctx context.Context, db *gorm.DB, sourceType domain.SourceType, sourceIDs []snowflake.ID) (int64, error) {
	if len(sourceIDs) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_numbers WHERE source_type = ? AND source_id IN ?`,
		sourceType,
		sourceIDs,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) CountClaims(ctx context.Context, db *gorm.DB, sourceType domain.SourceType) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoice_numbers WHERE source_type = ?`,
		sourceType,
	).Scan(&count).Error
	return count, err
}
