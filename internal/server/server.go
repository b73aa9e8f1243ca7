// Package server exposes the POD lifecycle API over HTTP. Every route takes
// the acting company from the X-Company-ID header or company_id query
// parameter; there is no ambient company context.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	companydomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/domain"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/config"
	customerservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
	dashboardservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/dashboard/service"
	devicedomain "github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/domain"
	obslogger "github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability/logger"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability/metrics"
	podsummaryservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/service"
	requestservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/service"
)

type Param struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Authz       authorization.Service
	CompanyRepo companydomain.Repository
	DeviceRepo  devicedomain.Repository
	Customers   customerservice.Service
	Requests    requestservice.Service
	Summaries   podsummaryservice.Service
	Dashboard   dashboardservice.Service
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

// Server carries the handler dependencies.
type Server struct {
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	authz        authorization.Service
	companyRepo  companydomain.Repository
	deviceRepo   devicedomain.Repository
	customerSvc  customerservice.Service
	requestSvc   requestservice.Service
	summarySvc   podsummaryservice.Service
	dashboardSvc dashboardservice.Service
	httpMetrics  *metrics.HTTPMetrics
}

func New(p Param) *Server {
	return &Server{
		cfg:          p.Config,
		log:          p.Log.Named("server"),
		db:           p.DB,
		authz:        p.Authz,
		companyRepo:  p.CompanyRepo,
		deviceRepo:   p.DeviceRepo,
		customerSvc:  p.Customers,
		requestSvc:   p.Requests,
		summarySvc:   p.Summaries,
		dashboardSvc: p.Dashboard,
		httpMetrics:  p.HTTPMetrics,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	api.GET("/dashboard", s.GetDashboard)

	api.GET("/summaries", s.ListSummaries)
	api.GET("/summaries/:id", s.GetSummary)
	api.POST("/summaries", s.CreateOrGetSummary)
	api.POST("/summaries/sync", s.SyncSummaries)
	api.POST("/summaries/refresh", s.RefreshAllStatuses)
	api.POST("/summaries/:id/recompute", s.RecomputeSummary)
	api.POST("/summaries/:id/shipping/request", s.RequestShipping)
	api.POST("/summaries/:id/shipping/dispatch", s.MarkShippingDispatched)
	api.POST("/summaries/:id/shipping/deliver", s.MarkShippingDelivered)
	api.POST("/summaries/:id/shipping/fail", s.MarkShippingFailed)

	api.GET("/requests/admissibility", s.ListAdmissibility)
	api.PUT("/requests/admissibility", s.UpsertAdmissibility)
	api.DELETE("/requests/admissibility/:id", s.DeleteAdmissibility)
	api.GET("/requests/association", s.ListAssociation)
	api.PUT("/requests/association", s.UpsertAssociation)
	api.DELETE("/requests/association/:id", s.DeleteAssociation)
	api.GET("/requests/disassociation", s.ListDisassociation)
	api.PUT("/requests/disassociation", s.UpsertDisassociation)
	api.DELETE("/requests/disassociation/:id", s.DeleteDisassociation)

	api.GET("/devices", s.ListDevices)
	api.PUT("/devices", s.UpsertDevice)

	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomer)
	api.GET("/customers/:id/stats", s.GetCustomerStats)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	api.GET("/authorized-pods", s.ListAuthorizedPods)
	api.POST("/pod-authorizations", s.UpsertPodAuthorization)
	api.PUT("/company-permissions", s.SetCompanyPermissions)
}

// Run starts the HTTP server tied to the fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{SkipPaths: []string{"/healthz", "/metrics"}}))
	engine.Use(metrics.GinMiddleware(s.httpMetrics))
	s.RegisterRoutes(engine)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// companyIDFromRequest resolves the acting company from the request.
func (s *Server) companyIDFromRequest(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.GetHeader("X-Company-ID"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("company_id"))
	}
	if raw == "" {
		return 0, newValidationError("company_id", "required", "company_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, newValidationError("company_id", "invalid", "company_id must be a numeric id")
	}
	return snowflake.ID(id), nil
}

func idParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid", name+" must be a numeric id")
	}
	return snowflake.ID(id), nil
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(Run),
)
