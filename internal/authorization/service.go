package authorization

import (
	"context"

	"github.com/smallbiznis/villadesk/internal/actor"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

// Service decides whether an actor may perform an action on an object.
type Service interface {
	Authorize(ctx context.Context, act actor.Actor, object string, action string) error
}

var (
	ErrForbidden     = apperror.Forbidden("forbidden", "you do not have permission to perform this action")
	ErrInvalidActor  = apperror.Forbidden("invalid_actor", "unknown actor")
	ErrInvalidObject = apperror.Invalid("object", "invalid_object", "object is required")
	ErrInvalidAction = apperror.Invalid("action", "invalid_action", "action is required")
)
