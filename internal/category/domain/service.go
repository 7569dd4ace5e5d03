package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type Service interface {
	Create(ctx context.Context, kind Kind, req CreateRequest) (Category, error)
	// List returns active categories unless includeInactive is set, sorted
	// by name ignoring case.
	List(ctx context.Context, kind Kind, includeInactive bool) ([]Category, error)
	Get(ctx context.Context, kind Kind, id string) (Category, error)
	Update(ctx context.Context, kind Kind, id string, req UpdateRequest) (Category, error)
	// Delete removes the category and unassigns it from every villa or
	// expense that referenced it.
	Delete(ctx context.Context, kind Kind, id string) error
	// Ensure checks that id names an existing category of kind.
	Ensure(ctx context.Context, kind Kind, id snowflake.ID) error
}

var (
	ErrNotFound    = apperror.NotFound("category_not_found", "category not found")
	ErrNameExists  = apperror.Conflict("category_name_exists", "a category with this name already exists")
	ErrInvalidID   = apperror.Invalid("id", "invalid_id", "invalid category id")
	ErrInvalidKind = apperror.Invalid("kind", "invalid_kind", "category kind must be villa or expense")
	ErrInvalidName = apperror.Invalid("name", "invalid_name", "name is required")
	ErrUnknown     = apperror.Invalid("category_id", "unknown_category", "category does not exist")
)
