package feeresolver

import (
	"github.com/elimisoft/shulefees/internal/feeresolver/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeresolver.service",
	fx.Provide(service.NewService),
)
