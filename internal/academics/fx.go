package academics

import (
	"github.com/elimisoft/shulefees/internal/academics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("academics.service",
	fx.Provide(service.NewService),
)
