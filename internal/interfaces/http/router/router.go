package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/paybridge/backend/internal/infrastructure/logger"
	"github.com/paybridge/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages versioned API route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds registrars to be mounted by Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registrar under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineOptions selects the middleware installed by NewEngine
type EngineOptions struct {
	ServiceName    string
	TracingEnabled bool
	Meter          metric.Meter
	CORS           middleware.CORSConfig
	MaxBodyBytes   int64
}

// NewEngine creates a gin engine with the standard middleware stack:
// request ID, panic recovery, tracing, request logging, metrics, CORS and
// body limit, in that order.
func NewEngine(opts EngineOptions, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: opts.ServiceName,
		Enabled:     opts.TracingEnabled,
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(opts.Meter))
	engine.Use(middleware.CORSWithConfig(opts.CORS))
	if opts.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodyBytes))
	}
	return engine
}
