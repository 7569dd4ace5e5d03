// Package context stores request-scoped correlation values used by logs and traces.
package context

import (
	"context"
	"strings"

	"github.com/smallbiznis/villadesk/internal/actor"
)

type ctxKey string

const (
	requestIDKey ctxKey = "obs.request_id"
	clientIPKey  ctxKey = "obs.client_ip"
	userAgentKey ctxKey = "obs.user_agent"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, strings.TrimSpace(ip))
	return context.WithValue(ctx, userAgentKey, strings.TrimSpace(userAgent))
}

func ClientIPFromContext(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

func UserAgentFromContext(ctx context.Context) string {
	return stringValue(ctx, userAgentKey)
}

// ActorFromContext returns the role and id of the authenticated user, if any.
func ActorFromContext(ctx context.Context) (string, string) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return "", ""
	}
	return string(a.Role), a.ID()
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
