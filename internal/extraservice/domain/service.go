package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

type CreateRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	DefaultPrice decimal.Decimal `json:"default_price"`
}

type UpdateRequest struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	IsActive     *bool            `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (ExtraService, error)
	List(ctx context.Context, activeOnly bool) ([]ExtraService, error)
	Update(ctx context.Context, id string, req UpdateRequest) (ExtraService, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrNotFound     = apperror.NotFound("extra_service_not_found", "extra service not found")
	ErrInvalidID    = apperror.Invalid("id", "invalid_id", "invalid extra service id")
	ErrInvalidName  = apperror.Invalid("name", "invalid_name", "name is required")
	ErrInvalidPrice = apperror.Invalid("default_price", "invalid_price", "default price must be >= 0")
)
