// Package seed bootstraps the rows a fresh install needs before anyone can
// log in: the invoice sequence and the first administrator.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/villadesk/internal/actor"
	authdomain "github.com/smallbiznis/villadesk/internal/auth/domain"
	"github.com/smallbiznis/villadesk/internal/config"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Auth     authdomain.Service
	Users    authdomain.Repository
	Sequence sequencedomain.Service
}

type Seeder struct {
	cfg      config.Config
	log      *zap.Logger
	auth     authdomain.Service
	users    authdomain.Repository
	sequence sequencedomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		cfg:      p.Config,
		log:      p.Log.Named("seed"),
		auth:     p.Auth,
		users:    p.Users,
		sequence: p.Sequence,
	}
}

// Run is safe to call on every start.
func (s *Seeder) Run(ctx context.Context) error {
	state, err := s.sequence.Current(ctx)
	if err != nil {
		return fmt.Errorf("seed invoice sequence: %w", err)
	}
	s.log.Debug("invoice sequence ready", zap.Int64("current_number", state.CurrentNumber))

	if !s.cfg.Bootstrap.EnsureAdmin {
		return nil
	}
	_, err = s.EnsureAdmin(ctx, AdminInput{
		Username: s.cfg.Bootstrap.AdminUsername,
		Email:    s.cfg.Bootstrap.AdminEmail,
		Password: s.cfg.Bootstrap.AdminPassword,
		FullName: s.cfg.Bootstrap.AdminFullName,
	})
	return err
}

type AdminInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// EnsureAdmin creates an administrator when the user table is empty. It
// reports whether a user was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, in AdminInput) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, s.CreateAdmin(ctx, in)
}

// CreateAdmin adds an administrator unconditionally.
func (s *Seeder) CreateAdmin(ctx context.Context, in AdminInput) error {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		fullName = in.Username
	}
	user, err := s.auth.CreateUser(actor.WithActor(ctx, actor.System()), authdomain.CreateUserRequest{
		Username: in.Username,
		Email:    in.Email,
		FullName: fullName,
		Role:     string(actor.RoleAdmin),
		Password: in.Password,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info("administrator created", zap.String("username", user.Username), zap.String("user_id", user.ID.String()))
	return nil
}
