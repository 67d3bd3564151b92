package catalog

import (
	"github.com/elimisoft/shulefees/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.NewService),
	fx.Provide(service.NewReader),
)
