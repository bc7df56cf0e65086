package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/config"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// Route prefixes.
const (
	HealthPrefix = "/-/"
	StaffPrefix  = "/api/v1/staff"
	PublicPrefix = "/api/v1/public"

	eventStreamPath = StaffPrefix + "/events/stream"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// ServiceName names the tracer.
	ServiceName string

	// AuthConfig contains authentication header configuration.
	AuthConfig *config.AuthConfig

	HealthHandler *handlers.HealthHandler
	StaffHandler  *handlers.StaffQuoteHandler
	ClientHandler *handlers.ClientQuoteHandler

	// EventStream upgrades staff dashboards to the live event feed. Optional.
	EventStream gin.HandlerFunc

	// Timeout is the default request timeout.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing (not on client routes) and metrics
//  5. Logging - route-template request logging (skips health endpoints)
//  6. Timeout - request deadline (not on the event stream)
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/staff: staff quote API, authenticated when auth is enabled
//   - /api/v1/public: client endpoints, gated by the response token only
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quote-lifecycle-service"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.ServiceName, PublicPrefix+"/"),
		telemetry.Middleware(),
		middleware.Logging(HealthPrefix),
	)

	engine.NoRoute(func(c *gin.Context) {
		dto.AbortWithCode(c, dto.ErrorCodeNotFound, "route not found")
	})
	engine.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
			dto.NewErrorResponse(dto.ErrorCodeBadRequest, "method not allowed").WithTraceID(dto.GetTraceID(c)))
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	timeout := middleware.Timeout(cfg.Timeout, eventStreamPath)

	if cfg.StaffHandler != nil || cfg.EventStream != nil {
		staff := engine.Group(StaffPrefix, timeout)
		if cfg.AuthConfig != nil && cfg.AuthConfig.Enabled {
			staff.Use(
				middleware.RequireAuth(cfg.AuthConfig),
				middleware.RequireAnyRole(cfg.AuthConfig, cfg.AuthConfig.StaffRoles...),
			)
		}

		setupStaffRoutes(staff, cfg)
	}

	if cfg.ClientHandler != nil {
		cfg.ClientHandler.RegisterRoutes(engine.Group(PublicPrefix, timeout))
	}
}

func setupStaffRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.StaffHandler != nil {
		quotes := rg.Group("/quotes")
		quotes.POST("", cfg.StaffHandler.Create)
		quotes.GET("", cfg.StaffHandler.List)
		quotes.GET("/:id", cfg.StaffHandler.Get)
		quotes.PATCH("/:id", cfg.StaffHandler.Update)
		quotes.POST("/:id/send", cfg.StaffHandler.Send)
		quotes.POST("/:id/requote", cfg.StaffHandler.Requote)

		sweeps := rg.Group("/sweeps")
		if cfg.AuthConfig != nil && cfg.AuthConfig.Enabled {
			sweeps.Use(middleware.RequireScopes(cfg.AuthConfig, cfg.AuthConfig.SweepScope))
		}

		sweeps.POST("", cfg.StaffHandler.Sweep)
	}

	if cfg.EventStream != nil {
		rg.GET("/events/stream", cfg.EventStream)
	}
}
