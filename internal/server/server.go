// Package server wires the HTTP surface: route registration, tenant
// middleware and error mapping over the bounded-context services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
	adjustmentdomain "github.com/elimisoft/shulefees/internal/adjustment/domain"
	catalogdomain "github.com/elimisoft/shulefees/internal/catalog/domain"
	"github.com/elimisoft/shulefees/internal/config"
	resolverdomain "github.com/elimisoft/shulefees/internal/feeresolver/domain"
	invoicedomain "github.com/elimisoft/shulefees/internal/invoice/domain"
	"github.com/elimisoft/shulefees/internal/invoice/render"
	ledgerdomain "github.com/elimisoft/shulefees/internal/ledger/domain"
	obsmetrics "github.com/elimisoft/shulefees/internal/observability/metrics"
	preferencedomain "github.com/elimisoft/shulefees/internal/preference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsMetrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if obsMetrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obsMetrics.Registry(), promhttp.HandlerOpts{})))
	}

	return r
}

type engineParams struct {
	fx.In

	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func registerGin(p engineParams) *gin.Engine {
	return NewEngine(p.ObsMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	academicsSvc  academicsdomain.Service
	catalogSvc    catalogdomain.Service
	catalogReader catalogdomain.Reader
	preferenceSvc preferencedomain.Service
	adjustmentSvc adjustmentdomain.Service
	resolverSvc   resolverdomain.Service
	invoiceSvc    invoicedomain.Service
	ledgerSvc     ledgerdomain.Service
	renderer      render.Renderer
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	AcademicsSvc  academicsdomain.Service
	CatalogSvc    catalogdomain.Service
	CatalogReader catalogdomain.Reader
	PreferenceSvc preferencedomain.Service
	AdjustmentSvc adjustmentdomain.Service
	ResolverSvc   resolverdomain.Service
	InvoiceSvc    invoicedomain.Service
	LedgerSvc     ledgerdomain.Service
	Renderer      render.Renderer
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		log:           p.Log.Named("server"),
		genID:         p.GenID,
		academicsSvc:  p.AcademicsSvc,
		catalogSvc:    p.CatalogSvc,
		catalogReader: p.CatalogReader,
		preferenceSvc: p.PreferenceSvc,
		adjustmentSvc: p.AdjustmentSvc,
		resolverSvc:   p.ResolverSvc,
		invoiceSvc:    p.InvoiceSvc,
		ledgerSvc:     p.LedgerSvc,
		renderer:      p.Renderer,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.SchoolRequired())

	// -------- Academics --------
	api.GET("/terms/active", s.GetActiveTerm)
	api.POST("/terms/:id/activate", s.ActivateTerm)
	api.GET("/guardians/:id", s.GetGuardian)
	api.GET("/guardians/:id/students", s.ListGuardianStudents)

	// -------- Fee catalog --------
	api.PUT("/catalog/tuition-fees", s.UpsertTuitionFee)
	api.PUT("/catalog/transport-routes", s.UpsertTransportRoute)
	api.PUT("/catalog/universal-fees", s.UpsertUniversalFee)
	api.POST("/catalog/fee-categories", s.CreateFeeCategory)
	api.PUT("/catalog/fee-amounts", s.UpsertFeeAmount)

	// -------- Preferences --------
	api.PUT("/preferences", s.UpsertPreference)
	api.GET("/preferences", s.GetPreference)
	api.GET("/preferences/:id/history", s.GetPreferenceHistory)

	// -------- Adjustments --------
	api.PUT("/adjustments", s.PutAdjustment)
	api.GET("/adjustments", s.ListAdjustments)

	// -------- Fee resolution --------
	api.GET("/students/:id/fees", s.ResolveStudentFees)

	// -------- Invoices --------
	api.POST("/invoices", s.GenerateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/render", s.RenderInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)

	// -------- Payments --------
	api.POST("/invoices/:id/payments", s.RecordPayment)
	api.GET("/invoices/:id/payments", s.ListPayments)
	api.POST("/payments/:id/void", s.VoidPayment)
}
