package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/observability"
)

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Params lists the dependencies of the Echo router.
type Params struct {
	fx.In

	Config config.Config
	Obs    *observability.Manager `optional:"true"`
	Conns  *database.Connections  `optional:"true"`
	Logger *zap.Logger
}

// NewEcho configures the Echo router with the shared middleware chain.
func NewEcho(p Params) *echo.Echo {
	var db pinger
	if p.Conns != nil {
		db = p.Conns
	}
	return newEcho(p.Config, p.Obs, db, p.Logger)
}

func newEcho(cfg config.Config, obs *observability.Manager, db pinger, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(recoverer(logger))
	e.Use(requestID())
	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}
	e.Use(requestLogger(logger))

	e.GET("/health", health(db))

	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(obs.PrometheusPath(), echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

func health(db pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "database": "up"})
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
