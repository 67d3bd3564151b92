package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/elimisoft/shulefees/internal/academics"
	"github.com/elimisoft/shulefees/internal/adjustment"
	"github.com/elimisoft/shulefees/internal/catalog"
	"github.com/elimisoft/shulefees/internal/clock"
	"github.com/elimisoft/shulefees/internal/config"
	"github.com/elimisoft/shulefees/internal/feeresolver"
	"github.com/elimisoft/shulefees/internal/invoice"
	"github.com/elimisoft/shulefees/internal/ledger"
	"github.com/elimisoft/shulefees/internal/migration"
	obsmetrics "github.com/elimisoft/shulefees/internal/observability/metrics"
	"github.com/elimisoft/shulefees/internal/preference"
	"github.com/elimisoft/shulefees/internal/scheduler"
	"github.com/elimisoft/shulefees/internal/server"
	"github.com/elimisoft/shulefees/pkg/db"
	"github.com/elimisoft/shulefees/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		obsmetrics.Module,
		migration.Module,

		// Bounded contexts
		academics.Module,
		catalog.Module,
		preference.Module,
		adjustment.Module,
		feeresolver.Module,
		invoice.Module,
		ledger.Module,

		// Background jobs and HTTP surface
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
