package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/autolink"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

type RouterConfig struct {
	ServiceName  string
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// Verifier enables the admin guard on the autolink routes when set.
	Verifier     middleware.TokenVerifier
	RequiredRole string
}

// NewRouter builds the echo instance serving the autolink, health and metrics routes.
func NewRouter(cfg RouterConfig, logger ectologger.Logger, runner autolink.Runner, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: cfg.AllowHeaders,
	}))
	if cfg.ServiceName != "" {
		e.Use(otelecho.Middleware(cfg.ServiceName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	checker.RegisterRoutes(e)

	var guards []echo.MiddlewareFunc
	if cfg.Verifier != nil {
		guards = append(guards,
			middleware.Authentication(logger, cfg.Verifier),
			middleware.RequireRole(logger, cfg.RequiredRole),
		)
	}
	autolink.NewHandler(runner, logger).Register(e.Group("/api/v1/autolink", guards...))

	return e
}
