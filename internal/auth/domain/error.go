package domain

import "github.com/smallbiznis/villadesk/internal/apperror"

var (
	ErrInvalidCredentials = apperror.Unauthenticated("invalid_credentials", "incorrect username or password")
	ErrInvalidSession     = apperror.Unauthenticated("invalid_session", "invalid session")
	ErrSessionExpired     = apperror.Unauthenticated("session_expired", "session expired")
	ErrSessionRevoked     = apperror.Unauthenticated("session_revoked", "session revoked")
	ErrUserInactive       = apperror.Forbidden("user_inactive", "user account is inactive")
	ErrUserNotFound       = apperror.NotFound("user_not_found", "user not found")
	ErrSessionNotFound    = apperror.NotFound("session_not_found", "session not found")
	ErrUsernameTaken      = apperror.Conflict("username_taken", "username already taken")
	ErrEmailTaken         = apperror.Conflict("email_taken", "email already taken")
	ErrInvalidUsername    = apperror.Invalid("username", "invalid_username", "username is required")
	ErrInvalidEmail       = apperror.Invalid("email", "invalid_email", "invalid email address")
	ErrInvalidFullName    = apperror.Invalid("full_name", "invalid_full_name", "full_name is required")
	ErrInvalidRole        = apperror.Invalid("role", "invalid_role", "role must be admin or employee")
	ErrWeakPassword       = apperror.Invalid("password", "weak_password", "password is shorter than the configured minimum")
	ErrInvalidUserID      = apperror.Invalid("id", "invalid_id", "invalid user id")
	ErrDeleteSelf         = apperror.Invalid("id", "cannot_delete_self", "cannot delete your own account")
	ErrDeactivateSelf     = apperror.Invalid("id", "cannot_deactivate_self", "cannot deactivate your own account")
)
