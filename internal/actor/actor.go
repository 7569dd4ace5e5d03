// Package actor carries the authenticated user through request contexts.
package actor

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/apperror"
)

var ErrAdminRequired = apperror.Forbidden("admin_required", "this operation requires an administrator")

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
	RoleSystem   Role = "system"
)

// ParseRole normalizes a stored role name.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

type Actor struct {
	UserID   snowflake.ID
	Username string
	Role     Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// Subject is the casbin subject for the actor.
func (a Actor) Subject() string {
	if a.Role == RoleSystem {
		return "system"
	}
	return "user:" + a.UserID.String()
}

// ID returns the user id as a string, or "system".
func (a Actor) ID() string {
	if a.UserID == 0 {
		return string(RoleSystem)
	}
	return a.UserID.String()
}

// System is the actor used by CLI commands and scheduled jobs.
func System() Actor {
	return Actor{Username: "system", Role: RoleSystem}
}

type contextKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(contextKey{}).(Actor)
	if !ok || a.Role == "" {
		return Actor{}, false
	}
	return a, true
}

// RequireAdmin fails unless the context carries an admin or system actor.
func RequireAdmin(ctx context.Context) error {
	a, ok := FromContext(ctx)
	if !ok || !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}
