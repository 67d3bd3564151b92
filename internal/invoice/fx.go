package invoice

import (
	"github.com/elimisoft/shulefees/internal/invoice/render"
	"github.com/elimisoft/shulefees/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(
		service.NewService,
		render.NewHTMLRenderer,
	),
)
