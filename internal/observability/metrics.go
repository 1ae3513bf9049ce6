package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the shop's business counters. A nil *Metrics records nothing.
type Metrics struct {
	ordersOpened  metric.Int64Counter
	statusChanges metric.Int64Counter
	sales         metric.Int64Counter
	salesRevenue  metric.Float64Counter
	stockLow      metric.Int64Counter
}

// NewMetrics registers the business instruments on the manager's meter.
func NewMetrics(mgr *Manager) (*Metrics, error) {
	return newMetrics(mgr.Meter())
}

// NopMetrics returns counters backed by a no-op meter.
func NopMetrics() *Metrics {
	m, _ := newMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.ordersOpened, err = meter.Int64Counter("oficina.service_orders.opened",
		metric.WithDescription("Service orders opened at intake")); err != nil {
		return nil, err
	}
	if m.statusChanges, err = meter.Int64Counter("oficina.service_orders.status_changes",
		metric.WithDescription("Service order status transitions")); err != nil {
		return nil, err
	}
	if m.sales, err = meter.Int64Counter("oficina.pos.sales",
		metric.WithDescription("Completed point-of-sale checkouts")); err != nil {
		return nil, err
	}
	if m.salesRevenue, err = meter.Float64Counter("oficina.pos.revenue",
		metric.WithDescription("Point-of-sale revenue"), metric.WithUnit("BRL")); err != nil {
		return nil, err
	}
	if m.stockLow, err = meter.Int64Counter("oficina.stock.low",
		metric.WithDescription("Parts reaching their minimum stock")); err != nil {
		return nil, err
	}
	return &m, nil
}

// OrderOpened counts one intake.
func (m *Metrics) OrderOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersOpened.Add(ctx, 1)
}

// StatusChanged counts one transition.
func (m *Metrics) StatusChanged(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// SaleCompleted counts one checkout and its revenue.
func (m *Metrics) SaleCompleted(ctx context.Context, method string, total float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("payment_method", method))
	m.sales.Add(ctx, 1, attrs)
	m.salesRevenue.Add(ctx, total, attrs)
}

// StockLow counts parts that reached their minimum.
func (m *Metrics) StockLow(ctx context.Context, parts int) {
	if m == nil || parts <= 0 {
		return
	}
	m.stockLow.Add(ctx, int64(parts))
}
