package auth

import (
	"github.com/smallbiznis/villadesk/internal/auth/password"
	"github.com/smallbiznis/villadesk/internal/auth/repository"
	"github.com/smallbiznis/villadesk/internal/auth/service"
	"github.com/smallbiznis/villadesk/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(session.NewManager),
	fx.Provide(password.NewHasher),
	fx.Provide(service.New),
)
