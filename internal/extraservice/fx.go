package extraservice

import (
	"github.com/smallbiznis/villadesk/internal/extraservice/domain"
	"github.com/smallbiznis/villadesk/internal/extraservice/service"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("extraservice.service",
	fx.Provide(repository.ProvideStore[domain.ExtraService]),
	fx.Provide(service.New),
)
