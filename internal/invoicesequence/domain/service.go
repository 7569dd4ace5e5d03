package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"gorm.io/gorm"
)

// Service allocates and guards invoice numbers. Methods taking a *gorm.DB run
// on that handle so callers can claim a number inside their own transaction;
// a nil handle means the service's own connection.
type Service interface {
	AllocateNext(ctx context.Context, tx *gorm.DB) (string, error)
	ValidateAvailable(ctx context.Context, tx *gorm.DB, number string) (bool, error)
	// Resolve returns manual when an admin supplied an available number,
	// otherwise the next allocated number.
	Resolve(ctx context.Context, tx *gorm.DB, act actor.Actor, manual string) (string, error)
	Claim(ctx context.Context, tx *gorm.DB, number string, sourceType SourceType, sourceID snowflake.ID) error
	Release(ctx context.Context, tx *gorm.DB, number string, sourceType SourceType, sourceID snowflake.ID) error
	ReleaseAll(ctx context.Context, tx *gorm.DB, sourceType SourceType, sourceIDs []snowflake.ID) error

	Current(ctx context.Context) (State, error)
	SetStart(ctx context.Context, start int64) (State, error)
	Reset(ctx context.Context, confirm bool) (State, error)
}

const maxNumberLength = 64

var (
	ErrNumberTaken      = apperror.Conflict("invoice_number_taken", "invoice number already in use")
	ErrManualForbidden  = apperror.Forbidden("manual_invoice_number_forbidden", "only admins may assign invoice numbers")
	ErrContended        = apperror.Conflict("invoice_sequence_contended", "invoice sequence is busy, retry")
	ErrInvalidNumber    = apperror.Invalid("invoice_number", "invalid_invoice_number", "invoice number must be 1-64 characters")
	ErrInvalidStart     = apperror.Invalid("start", "invalid_start", "start must be at least 1")
	ErrConfirmRequired  = apperror.Invalid("confirm", "confirm_required", "reset requires confirm=true")
	ErrResetWithHistory = apperror.Conflict("sequence_in_use", "cannot reset the sequence while reservations exist")
	ErrSequenceMissing  = errors.New("invoice_sequence_missing")
)

// ValidNumber reports whether number can be stored as an invoice number.
func ValidNumber(number string) bool {
	return number != "" && len(number) <= maxNumberLength
}
