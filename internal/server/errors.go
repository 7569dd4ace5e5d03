package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/villadesk/internal/apperror"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = apperror.Unauthenticated("unauthorized", "unauthorized")
	ErrForbidden    = apperror.Forbidden("forbidden", "forbidden")
	ErrRateLimited  = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return apperror.Invalid("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return apperror.Invalid(field, code, message)
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many attempts, try again later",
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	}

	appErr, _ := apperror.As(err)
	code, message := "", ""
	if appErr != nil {
		code, message = appErr.Code, appErr.Error()
	}

	switch apperror.KindOf(err) {
	case apperror.ErrInvalidInput:
		field := ""
		if appErr != nil {
			field = appErr.Field
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    code,
			Message: message,
			Errors:  []ValidationError{{Field: field, Code: code, Message: message}},
		}
	case apperror.ErrUnauthenticated:
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    code,
			Message: message,
		}
	case apperror.ErrForbidden:
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Code:    code,
			Message: message,
		}
	case apperror.ErrNotFound:
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    code,
			Message: message,
		}
	case apperror.ErrConflict:
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    code,
			Message: message,
		}
	case apperror.ErrSequenceExhausted:
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "sequence_exhausted",
			Code:    code,
			Message: message,
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, payload.Code
}
