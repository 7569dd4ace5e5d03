package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/villadesk/internal/actor"
	"go.uber.org/zap"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie to an active user and stores the
// actor on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		act := user.Actor()
		c.Set(contextUserIDKey, user.ID.String())
		c.Request = c.Request.WithContext(actor.WithActor(c.Request.Context(), act))
		c.Next()
	}
}

// Authorize checks the actor's role against the RBAC policy for object and
// action.
func (s *Server) Authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		act, ok := actor.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), act, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// audit records a mutating request. Failures are logged, never returned.
func (s *Server) audit(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var target *string
	if trimmed := strings.TrimSpace(targetID); trimmed != "" {
		target = &trimmed
	}
	if err := s.auditSvc.AuditLog(c.Request.Context(), action, targetType, target, metadata); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
