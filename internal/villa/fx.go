package villa

import (
	"github.com/smallbiznis/villadesk/internal/villa/domain"
	"github.com/smallbiznis/villadesk/internal/villa/service"
	"github.com/smallbiznis/villadesk/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("villa.service",
	fx.Provide(repository.ProvideStore[domain.Villa]),
	fx.Provide(service.New),
)
