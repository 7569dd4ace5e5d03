package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, kind Kind, category *Category) error
	FindByID(ctx context.Context, db *gorm.DB, kind Kind, id snowflake.ID) (*Category, error)
	// FindByName matches case-insensitively.
	FindByName(ctx context.Context, db *gorm.DB, kind Kind, name string) (*Category, error)
	List(ctx context.Context, db *gorm.DB, kind Kind, activeOnly bool) ([]Category, error)
	Update(ctx context.Context, db *gorm.DB, kind Kind, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, kind Kind, id snowflake.ID) (int64, error)
	// Detach clears every reference to the category and returns how many
	// records were touched.
	Detach(ctx context.Context, db *gorm.DB, kind Kind, id snowflake.ID) (int64, error)
}
