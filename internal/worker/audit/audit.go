// Package audit writes one structured log line per domain event.
package audit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/oficina/worker/audit")

// Module registers the audit handlers.
var Module = fx.Module("worker_audit",
	fx.Provide(
		fx.Annotate(
			NewHandlers,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewHandlers returns one audit registration per known event type.
func NewHandlers(logger *zap.Logger) []worker.HandlerRegistration {
	l := logger.Named("audit")
	return []worker.HandlerRegistration{
		{Event: event.ServiceOrderOpened, Name: "audit", Handler: handle(l, orderOpened)},
		{Event: event.ServiceOrderStatusChanged, Name: "audit", Handler: handle(l, statusChanged)},
		{Event: event.StockLow, Name: "audit", Handler: handle(l, stockLow)},
		{Event: event.SaleCompleted, Name: "audit", Handler: handle(l, saleCompleted)},
	}
}

type fieldsFunc func(env event.Envelope) ([]zap.Field, error)

func handle(logger *zap.Logger, fields fieldsFunc) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.audit")
		defer span.End()

		env, err := event.Decode(msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			logger.Error("failed to decode event", zap.Error(err))
			return nil
		}
		extra, err := fields(env)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			logger.Error("failed to decode event payload", zap.String("event", string(env.Type)), zap.Error(err))
			return nil
		}

		base := []zap.Field{
			zap.String("event", string(env.Type)),
			zap.String("event_id", env.ID),
			zap.Time("occurred_at", env.OccurredAt),
		}
		logger.Info("domain event", append(base, extra...)...)
		return nil
	}
}

func orderOpened(env event.Envelope) ([]zap.Field, error) {
	var p event.OrderOpened
	if err := env.DecodePayload(&p); err != nil {
		return nil, err
	}
	return []zap.Field{
		zap.Int64("order_id", p.OrderID),
		zap.Int64("order_number", p.Number),
		zap.Int64("client_id", p.ClientID),
		zap.Int64("vehicle_id", p.VehicleID),
	}, nil
}

func statusChanged(env event.Envelope) ([]zap.Field, error) {
	var p event.OrderStatusChanged
	if err := env.DecodePayload(&p); err != nil {
		return nil, err
	}
	return []zap.Field{
		zap.Int64("order_id", p.OrderID),
		zap.Int64("order_number", p.Number),
		zap.String("from", p.From),
		zap.String("to", p.To),
	}, nil
}

func stockLow(env event.Envelope) ([]zap.Field, error) {
	var p event.PartLow
	if err := env.DecodePayload(&p); err != nil {
		return nil, err
	}
	return []zap.Field{
		zap.Int64("part_id", p.PartID),
		zap.String("sku", p.SKU),
		zap.Int("stock", p.Stock),
		zap.Int("min_stock", p.MinStock),
	}, nil
}

func saleCompleted(env event.Envelope) ([]zap.Field, error) {
	var p event.SaleDone
	if err := env.DecodePayload(&p); err != nil {
		return nil, err
	}
	return []zap.Field{
		zap.Int64("sale_id", p.SaleID),
		zap.Int64("sale_number", p.Number),
		zap.String("total", p.Total),
		zap.String("payment_method", p.PaymentMethod),
		zap.Int64s("parts", p.Parts),
	}, nil
}
