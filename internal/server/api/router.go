package api

import (
	"context"
	"net/http"

	"netbaseline/internal/config"
	"netbaseline/internal/server/api/middleware"
	"netbaseline/internal/server/api/response"
	"netbaseline/internal/server/service"
	"netbaseline/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker reports service health
type HealthChecker interface {
	HealthCheck(ctx context.Context) *service.HealthStatus
}

// Router handles all routing logic
type Router struct {
	engine   *gin.Engine
	config   *config.Config
	health   HealthChecker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewRouter creates and configures a new router
func NewRouter(cfg *config.Config, health HealthChecker, gatherer prometheus.Gatherer, logger *zap.Logger) *Router {
	gin.SetMode(cfg.Server.Mode)

	r := &Router{
		engine:   gin.New(),
		config:   cfg,
		health:   health,
		gatherer: gatherer,
		logger:   logger,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	m := middleware.New(r.logger)

	r.engine.Use(m.RequestID())
	r.engine.Use(m.Logger())
	r.engine.Use(m.Recovery())
}

func (r *Router) setupRoutes() {
	m := middleware.New(r.logger)

	r.engine.GET(r.config.Server.MetricsPath, gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(r.logger),
	})))
	r.engine.GET("/healthz", m.NoCache(), r.healthz)
	r.engine.GET("/version", r.version)
}

func (r *Router) healthz(c *gin.Context) {
	status := r.health.HealthCheck(c.Request.Context())
	if !status.Healthy {
		response.New(c, r.logger).Status(http.StatusServiceUnavailable, "unhealthy", status)
		return
	}
	response.New(c, r.logger).Success(status)
}

func (r *Router) version(c *gin.Context) {
	response.New(c, r.logger).Success(version.GetInfo())
}
