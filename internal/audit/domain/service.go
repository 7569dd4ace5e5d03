package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/villadesk/internal/apperror"
	"github.com/smallbiznis/villadesk/pkg/db/pagination"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action        string
	TargetType    string
	TargetID      string
	ActorType     string
	ActorID       string
	InvoiceNumber string
	StartAt       *time.Time
	EndAt         *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records who did what. The actor, request id and client are read
// from ctx.
type Service interface {
	AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
	// Trail is the full history of one target in the order it happened.
	Trail(ctx context.Context, targetType, targetID string) ([]AuditLog, error)
}

var (
	ErrInvalidPageToken = apperror.Invalid("page_token", "invalid_page_token", "invalid page token")
	ErrInvalidTimeRange = apperror.Invalid("start_at", "invalid_time_range", "start_at must not be after end_at")
	ErrInvalidAction    = apperror.Invalid("action", "invalid_action", "audit action is required")
	ErrInvalidActorType = apperror.Invalid("actor_type", "invalid_actor_type", "actor_type must be admin, employee or system")
	ErrInvalidTarget    = apperror.Invalid("target_id", "invalid_target", "target type and id are required")
)
