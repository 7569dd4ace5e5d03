package invoicesequence

import (
	"github.com/smallbiznis/villadesk/internal/invoicesequence/repository"
	"github.com/smallbiznis/villadesk/internal/invoicesequence/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoicesequence.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
