package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/actor"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/auth/domain"
	"github.com/smallbiznis/villadesk/internal/auth/password"
	"github.com/smallbiznis/villadesk/internal/auth/session"
	"github.com/smallbiznis/villadesk/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	Sessions    *session.Manager
	Passwords   *password.Hasher
	AuditSvc    auditdomain.Service `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	sessions    *session.Manager
	passwords   *password.Hasher
	genID       *snowflake.Node
	auditSvc    auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("auth.service"),
		clock:       p.Clock,
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		sessions:    p.Sessions,
		passwords:   p.Passwords,
		genID:       p.GenID,
		auditSvc:    p.AuditSvc,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.passwords.Verify(req.Password, user.PasswordHash) {
		s.log.Info("login rejected", zap.String("username", username), zap.String("reason", "password"))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	s.upgradeHash(ctx, user, req.Password)

	rawToken, tokenHash, err := session.NewToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	record := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: tokenHash,
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        s.sessions.ExpiresAt(now),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, record); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: record.ExpiresAt,
		SessionID: record.ID,
	}, nil
}

// upgradeHash re-encodes a verified password whose hash predates the current
// Argon2 costs. Failure leaves the old hash in place.
func (s *Service) upgradeHash(ctx context.Context, user *domain.User, plain string) {
	if !s.passwords.NeedsRehash(user.PasswordHash) {
		return
	}
	hashed, err := s.passwords.Hash(plain)
	if err != nil {
		s.log.Warn("password rehash failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{"password_hash": hashed}); err != nil {
		s.log.Warn("password rehash not stored", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = hashed
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	record, err := s.sessionRepo.GetSessionByTokenHash(ctx, session.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.RevokeSession(ctx, record.ID, s.clock.Now().UTC())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	record, err := s.sessionRepo.GetSessionByTokenHash(ctx, session.HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	if record.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(record.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, record.ID, now); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	act, ok := actor.FromContext(ctx)
	if !ok || act.UserID == 0 {
		return nil, domain.ErrInvalidSession
	}
	return s.repo.FindByID(ctx, act.UserID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if !s.passwords.Acceptable(newPassword) {
		return domain.ErrWeakPassword
	}
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	return s.repo.UpdateFields(ctx, id, map[string]any{
		"password_hash":         hashed,
		"last_password_changed": &now,
		"updated_at":            now,
	})
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.ErrInvalidUsername
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidFullName
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if !s.passwords.Acceptable(req.Password) {
		return nil, domain.ErrWeakPassword
	}
	if err := s.ensureUnique(ctx, 0, username, email); err != nil {
		return nil, err
	}

	hashed, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	user := &domain.User{
		ID:                  s.genID.Generate(),
		Username:            username,
		Email:               email,
		FullName:            fullName,
		Role:                role,
		PasswordHash:        hashed,
		IsActive:            true,
		LastPasswordChanged: &now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit(ctx, "user.create", user.ID, map[string]any{"username": username, "role": string(role)})
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	userID, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) UpdateUser(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	userID, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, domain.ErrInvalidUsername
		}
		user.Username = username
		fields["username"] = username
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, domain.ErrInvalidEmail
		}
		user.Email = email
		fields["email"] = email
	}
	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, domain.ErrInvalidFullName
		}
		user.FullName = fullName
		fields["full_name"] = fullName
	}
	if req.Role != nil {
		role, err := parseRole(*req.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
		fields["role"] = role
	}

	now := s.clock.Now().UTC()
	if req.Password != nil {
		if !s.passwords.Acceptable(*req.Password) {
			return nil, domain.ErrWeakPassword
		}
		hashed, err := s.passwords.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
		user.LastPasswordChanged = &now
		fields["password_hash"] = hashed
		fields["last_password_changed"] = &now
	}
	if len(fields) == 0 {
		return user, nil
	}
	if err := s.ensureUnique(ctx, user.ID, user.Username, user.Email); err != nil {
		return nil, err
	}

	user.UpdatedAt = now
	fields["updated_at"] = now
	if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
		return nil, err
	}

	s.audit(ctx, "user.update", user.ID, map[string]any{"fields": fieldNames(fields)})
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := actor.RequireAdmin(ctx); err != nil {
		return err
	}
	userID, err := parseUserID(id)
	if err != nil {
		return err
	}
	if act, _ := actor.FromContext(ctx); act.UserID == userID {
		return domain.ErrDeleteSelf
	}

	if err := s.sessionRepo.RevokeUserSessions(ctx, userID, s.clock.Now().UTC()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, "user.delete", userID, nil)
	return nil
}

func (s *Service) ToggleStatus(ctx context.Context, id string) (*domain.User, error) {
	if err := actor.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	userID, err := parseUserID(id)
	if err != nil {
		return nil, err
	}
	if act, _ := actor.FromContext(ctx); act.UserID == userID {
		return nil, domain.ErrDeactivateSelf
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	user.IsActive = !user.IsActive
	user.UpdatedAt = now
	if err := s.repo.UpdateFields(ctx, userID, map[string]any{
		"is_active":  user.IsActive,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	if !user.IsActive {
		if err := s.sessionRepo.RevokeUserSessions(ctx, userID, now); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, "user.toggle_status", userID, map[string]any{"is_active": user.IsActive})
	return user, nil
}

func (s *Service) ensureUnique(ctx context.Context, self snowflake.ID, username, email string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return domain.ErrUsernameTaken
	}

	existing, err = s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return domain.ErrEmailTaken
	}
	return nil
}

func (s *Service) audit(ctx context.Context, action string, userID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := userID.String()
	if err := s.auditSvc.AuditLog(ctx, action, "user", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name == "password_hash" || name == "updated_at" || name == "last_password_changed" {
			continue
		}
		names = append(names, name)
	}
	if _, ok := fields["password_hash"]; ok {
		names = append(names, "password")
	}
	return names
}

func parseRole(raw string) (actor.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return actor.RoleEmployee, nil
	}
	role, ok := actor.ParseRole(raw)
	if !ok {
		return "", domain.ErrInvalidRole
	}
	return role, nil
}

func parseUserID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidUserID
	}
	return id, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}
