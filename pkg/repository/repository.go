// Package repository provides a generic gorm-backed document store used by
// the directory services (villas, customers, extra services, owners).
package repository

import (
	"context"

	"github.com/smallbiznis/villadesk/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindByID(ctx context.Context, id any) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, id any, fields map[string]any) (int64, error)
	UpdateMany(ctx context.Context, fields map[string]any, opts ...option.QueryOption) (int64, error)
	Delete(ctx context.Context, id any) (int64, error)
	DeleteMany(ctx context.Context, opts ...option.QueryOption) (int64, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
}
