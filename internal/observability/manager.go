package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 10 * time.Second
	meterName       = "github.com/Additional-Code/oficina"
)

// Manager owns the tracer and meter providers.
type Manager struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
	cfg            config.Observability
	logger         *zap.Logger
}

// Module exposes the observability manager and business metrics to Fx.
var Module = fx.Provide(NewManager, NewMetrics)

// NewManager configures tracing and metrics providers based on configuration.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	ctx := context.Background()
	resource, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.Observability.ServiceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("service.environment", cfg.Observability.Environment),
			attribute.String("shop.name", cfg.Shop.Name),
		),
	)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{cfg: cfg.Observability, logger: logger}

	if cfg.Observability.EnableTracing {
		if err := mgr.initTracing(ctx, resource); err != nil {
			return nil, err
		}
	}
	if cfg.Observability.EnableMetrics {
		if err := mgr.initMetrics(resource); err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			mgr.install()
			return nil
		},
		OnStop: mgr.Shutdown,
	})

	return mgr, nil
}

func (m *Manager) install() {
	if m.tracerProvider != nil {
		otel.SetTracerProvider(m.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meterProvider != nil {
		otel.SetMeterProvider(m.meterProvider)
	}
}

// Shutdown flushes and stops both providers.
func (m *Manager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if m.tracerProvider != nil {
		err = errors.Join(err, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		err = errors.Join(err, m.meterProvider.Shutdown(ctx))
	}
	return err
}

// TracingEnabled reports whether tracing is active.
func (m *Manager) TracingEnabled() bool {
	return m != nil && m.tracerProvider != nil
}

// MetricsEnabled reports whether metrics are active.
func (m *Manager) MetricsEnabled() bool {
	return m != nil && m.meterProvider != nil
}

// MetricsHandler exposes the Prometheus HTTP handler when the prometheus exporter is active.
func (m *Manager) MetricsHandler() http.Handler {
	if m == nil {
		return nil
	}
	return m.metricsHandler
}

// PrometheusPath returns the configured metrics endpoint path.
func (m *Manager) PrometheusPath() string {
	return m.cfg.PrometheusPath
}

// Meter returns the application meter, or a no-op meter when metrics are off.
func (m *Manager) Meter() metric.Meter {
	if !m.MetricsEnabled() {
		return noop.NewMeterProvider().Meter(meterName)
	}
	return m.meterProvider.Meter(meterName)
}

func (m *Manager) initTracing(ctx context.Context, resource *sdkresource.Resource) error {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch m.cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if m.cfg.TraceEndpoint == "" {
			return fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(m.cfg.TraceEndpoint)}
		if m.cfg.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		exporter, err = otlptracegrpc.New(dialCtx, opts...)
	default:
		m.logger.Warn("unsupported trace exporter; tracing disabled", zap.String("exporter", m.cfg.TraceExporter))
		return nil
	}
	if err != nil {
		return err
	}

	m.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource),
	)
	return nil
}

func (m *Manager) initMetrics(resource *sdkresource.Resource) error {
	var reader sdkmetric.Reader

	switch m.cfg.MetricsExporter {
	case "prometheus":
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return err
		}
		reader = exporter
		m.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return err
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))
	default:
		m.logger.Warn("unsupported metrics exporter; metrics disabled", zap.String("exporter", m.cfg.MetricsExporter))
		return nil
	}

	m.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource),
	)
	return nil
}
