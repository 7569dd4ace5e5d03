package receipt

import "go.uber.org/fx"

var Module = fx.Module("receipt.service",
	fx.Provide(NewRenderer),
	fx.Provide(NewService),
)
