package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/messaging"
)

// HandlerRegistration binds an event type to a handler. Several handlers may
// share one event type; each sees every message of that type.
type HandlerRegistration struct {
	Event   event.Type
	Name    string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// maxBackoff caps the wait between failed Consume calls.
const maxBackoff = 30 * time.Second

// Engine fans kafka messages out to the registered event handlers.
type Engine struct {
	client        messaging.Client
	logger        *zap.Logger
	cfg           config.Config
	registrations map[event.Type][]HandlerRegistration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine indexes the registrations by event type, skipping incomplete ones.
func NewEngine(p Params) *Engine {
	reg := make(map[event.Type][]HandlerRegistration, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Event == "" || r.Handler == nil {
			continue
		}
		reg[r.Event] = append(reg[r.Event], r)
	}

	return &Engine{
		client:        p.Client,
		logger:        p.Logger,
		cfg:           p.Config,
		registrations: reg,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	workers := e.cfg.Messaging.Workers
	switch {
	case !e.cfg.Messaging.Enabled || !workers.Enabled:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.registrations) == 0:
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	n := max(workers.Concurrency, 1)
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	var wg sync.WaitGroup
	for id := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.consume(runCtx, id)
		}()
	}
	go func() {
		wg.Wait()
		close(e.done)
	}()

	e.logger.Info("worker engine started", zap.Int("workers", n), zap.Int("event_types", len(e.registrations)))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	select {
	case <-e.done:
		e.logger.Info("worker engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consume keeps one reader attached until ctx ends. A failing Consume is
// retried with doubling backoff starting at the configured poll interval.
func (e *Engine) consume(ctx context.Context, workerID int) {
	initial := e.cfg.Messaging.Workers.PollInterval
	if initial <= 0 {
		initial = time.Second
	}
	backoff := initial

	handle := func(msgCtx context.Context, msg messaging.Message) error {
		e.logger.Debug("processing message", zap.String("topic", msg.Topic), zap.Int64("offset", msg.Offset), zap.Int("worker", workerID))
		return e.dispatch(msgCtx, msg)
	}

	for ctx.Err() == nil {
		err := e.client.Consume(ctx, handle)
		if err == nil || ctx.Err() != nil {
			return
		}

		e.logger.Error("consume failed; retrying", zap.Int("worker", workerID), zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// dispatch routes one message to every handler registered for its event type.
// Messages that cannot be identified are dropped so they do not block the partition.
func (e *Engine) dispatch(ctx context.Context, msg messaging.Message) error {
	typ := event.Type(msg.Headers[event.HeaderType])
	if typ == "" {
		env, err := event.Decode(msg)
		if err != nil {
			e.logger.Warn("dropping unreadable message", zap.Int64("offset", msg.Offset), zap.Error(err))

			return nil
		}
		typ = env.Type
	}

	handlers, ok := e.registrations[typ]
	if !ok {
		e.logger.Debug("no handler for event", zap.String("event", string(typ)))

		return nil
	}

	var errs []error
	for _, r := range handlers {
		if err := r.Handler(ctx, msg); err != nil {
			e.logger.Warn("event handler failed", zap.String("event", string(typ)), zap.String("handler", r.Name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
