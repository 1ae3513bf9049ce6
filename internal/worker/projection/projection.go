// Package projection keeps cached read models in step with domain events.
package projection

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/oficina/worker/projection")

// Module registers the cache projection handlers.
var Module = fx.Module("worker_projection",
	fx.Provide(
		fx.Annotate(
			NewHandlers,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewHandlers drops the yard board on order events and the finance summaries on sales.
func NewHandlers(store cache.Store, logger *zap.Logger) []worker.HandlerRegistration {
	board := invalidate("patio_board", logger, func(ctx context.Context) error {
		return store.Delete(ctx, cache.PatioBoardKey)
	})
	summaries := invalidate("finance_summary", logger, func(ctx context.Context) error {
		return store.DeletePrefix(ctx, cache.FinanceSummaryPrefix)
	})

	return []worker.HandlerRegistration{
		{Event: event.ServiceOrderOpened, Name: "patio_board", Handler: board},
		{Event: event.ServiceOrderStatusChanged, Name: "patio_board", Handler: board},
		{Event: event.SaleCompleted, Name: "finance_summary", Handler: summaries},
	}
}

func invalidate(name string, logger *zap.Logger, drop func(context.Context) error) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.projection."+name, trace.WithAttributes(
			attribute.String("event.type", msg.Headers[event.HeaderType]),
		))
		defer span.End()

		if err := drop(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalidate failed")
			return fmt.Errorf("invalidate %s: %w", name, err)
		}
		logger.Debug("cache projection invalidated", zap.String("projection", name))
		return nil
	}
}
