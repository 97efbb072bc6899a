package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/i18n"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is everything the router needs from main.
type Deps struct {
	Log      *slog.Logger
	Config   config.Config
	Service  handlers.UserService
	Messages *i18n.Catalog

	// Ping probes the store for /readyz. Nil means always ready.
	Ping func(ctx context.Context) error

	// Prom and Gatherer are nil when metrics are disabled.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	if !cfg.IsDev() && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	msgs := d.Messages
	if msgs == nil {
		msgs = i18n.New(cfg.Locale)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// middleware
	r.Use(gin.Recovery())
	if cfg.OtelEnabled {
		r.Use(otelgin.Middleware(cfg.OtelServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if cfg.RateLimitPerMinute > 0 {
		rl := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		r.Use(rl.RateLimiterMiddleware(middlewares.KeyByIP, msgs.T(i18n.TooManyRequests)))
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	// health
	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// users
	usersHandler := handlers.NewUsersHandler(d.Service, msgs)

	r.POST("/users", usersHandler.CreateUser)
	r.GET("/users", usersHandler.ListUsers)
	r.GET("/user-by-id/:userId", usersHandler.GetUserByID)
	r.PUT("/user-edit/:userId", usersHandler.EditUser)
	r.DELETE("/user-delete/:userId", usersHandler.DeleteUser)

	r.NoRoute(usersHandler.NotFound)

	return r
}
