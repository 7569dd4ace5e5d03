package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

// VillaInput carries every writable field; updates replace the whole record.
type VillaInput struct {
	Code                  string          `json:"code"`
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Phone                 string          `json:"phone"`
	CategoryID            string          `json:"category_id"`
	CheckInTime           string          `json:"default_check_in_time"`
	CheckOutTime          string          `json:"default_check_out_time"`
	DefaultPriceShortStay decimal.Decimal `json:"default_price_short_stay"`
	DefaultPriceOvernight decimal.Decimal `json:"default_price_overnight"`
	DefaultPriceEvent     decimal.Decimal `json:"default_price_event"`
	OwnerPriceShortStay   decimal.Decimal `json:"owner_price_short_stay"`
	OwnerPriceOvernight   decimal.Decimal `json:"owner_price_overnight"`
	OwnerPriceEvent       decimal.Decimal `json:"owner_price_event"`
	MaxGuests             int             `json:"max_guests"`
	Amenities             []string        `json:"amenities"`
	IsActive              *bool           `json:"is_active"`
}

type ListRequest struct {
	Search     string
	CategoryID string
	ActiveOnly bool
}

type Service interface {
	Create(ctx context.Context, req VillaInput) (Villa, error)
	List(ctx context.Context, req ListRequest) ([]Villa, error)
	Get(ctx context.Context, id string) (Villa, error)
	Update(ctx context.Context, id string, req VillaInput) (Villa, error)
	Delete(ctx context.Context, id string) error
	// FindByID is the lookup used by other services; a missing villa is (nil, nil).
	FindByID(ctx context.Context, id snowflake.ID) (*Villa, error)
}

var (
	ErrNotFound        = apperror.NotFound("villa_not_found", "villa not found")
	ErrCodeExists      = apperror.Conflict("villa_code_exists", "villa code already exists")
	ErrInvalidID       = apperror.Invalid("id", "invalid_id", "invalid villa id")
	ErrInvalidCode     = apperror.Invalid("code", "invalid_code", "code is required")
	ErrInvalidName     = apperror.Invalid("name", "invalid_name", "name is required")
	ErrInvalidPrice    = apperror.Invalid("price", "invalid_price", "prices cannot be negative")
	ErrInvalidCategory = apperror.Invalid("category_id", "invalid_category_id", "invalid category id")
	ErrInvalidGuest    = apperror.Invalid("max_guests", "invalid_max_guests", "max_guests cannot be negative")
)
