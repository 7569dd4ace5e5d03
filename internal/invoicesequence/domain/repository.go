package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	EnsureSequence(ctx context.Context, db *gorm.DB, start int64, now time.Time) error
	GetSequence(ctx context.Context, db *gorm.DB) (*Sequence, error)
	// CompareAndSwap moves the cursor from expected to next. It reports false
	// when another writer moved the cursor first.
	CompareAndSwap(ctx context.Context, db *gorm.DB, expected, next int64, now time.Time) (bool, error)
	SetCurrent(ctx context.Context, db *gorm.DB, current int64, now time.Time) error

	ClaimedAmong(ctx context.Context, db *gorm.DB, numbers []string) ([]string, error)
	FindClaim(ctx context.Context, db *gorm.DB, number string) (*Claim, error)
	InsertClaim(ctx context.Context, db *gorm.DB, claim *Claim) error
	DeleteClaim(ctx context.Context, db *gorm.DB, number string, sourceType SourceType, sourceID snowflake.ID) (int64, error)
	DeleteClaimsBySource(ctx context.Context, db *gorm.DB, sourceType SourceType, sourceIDs []snowflake.ID) (int64, error)
	CountClaims(ctx context.Context, db *gorm.DB, sourceType SourceType) (int64, error)
}
