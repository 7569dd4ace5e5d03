package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindTemplate returns nil when no layout has been saved.
	FindTemplate(ctx context.Context, db *gorm.DB, id string) (*Template, error)
	// SaveTemplate inserts or replaces the row with the template's id.
	SaveTemplate(ctx context.Context, db *gorm.DB, tmpl *Template) error

	FindLogo(ctx context.Context, db *gorm.DB, id string) (*Logo, error)
	SaveLogo(ctx context.Context, db *gorm.DB, logo *Logo) error
	DeleteLogo(ctx context.Context, db *gorm.DB, id string) (int64, error)
}
