package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

type ListCustomerRequest struct {
	Name string
}

type ListCustomerFilter struct {
	Name string
}

type CreateCustomerRequest struct {
	Name                   string `json:"name"`
	Phone                  string `json:"phone"`
	Email                  string `json:"email"`
	IdentificationDocument string `json:"identification_document"`
	Address                string `json:"address"`
	Notes                  string `json:"notes"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) ([]Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	Delete(ctx context.Context, id string) error
	// Lookup returns the customers found among ids, keyed by id.
	Lookup(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Customer, error)
}

var (
	ErrInvalidName  = apperror.Invalid("name", "invalid_name", "name is required")
	ErrInvalidPhone = apperror.Invalid("phone", "invalid_phone", "phone is required")
	ErrInvalidEmail = apperror.Invalid("email", "invalid_email", "email is malformed")
	ErrInvalidID    = apperror.Invalid("id", "invalid_id", "invalid customer id")
	ErrNotFound     = apperror.NotFound("customer_not_found", "customer not found")
)
