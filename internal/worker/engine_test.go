package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/messaging"
	"github.com/Additional-Code/oficina/internal/testkit"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) handler(name string, err error) messaging.Handler {
	return func(_ context.Context, msg messaging.Message) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seen = append(r.seen, name+":"+msg.Headers[event.HeaderType])
		return err
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func enabled() config.Config {
	var cfg config.Config
	cfg.Messaging.Enabled = true
	cfg.Messaging.Workers.Enabled = true
	cfg.Messaging.Workers.Concurrency = 1
	return cfg
}

func TestDispatch_FansOutByEventType(t *testing.T) {
	rec := &recorder{}
	engine := NewEngine(Params{
		Client: &testkit.Bus{},
		Logger: zap.NewNop(),
		Config: enabled(),
		Registrations: []HandlerRegistration{
			{Event: event.StockLow, Name: "a", Handler: rec.handler("a", nil)},
			{Event: event.StockLow, Name: "b", Handler: rec.handler("b", errors.New("redis down"))},
			{Event: event.SaleCompleted, Name: "c", Handler: rec.handler("c", nil)},
			{Event: "", Name: "ignored", Handler: rec.handler("ignored", nil)},
		},
	})

	err := engine.dispatch(context.Background(), messaging.Message{Headers: map[string]string{event.HeaderType: string(event.StockLow)}})
	assert.ErrorContains(t, err, "redis down")
	assert.Equal(t, []string{"a:stock.low", "b:stock.low"}, rec.snapshot())

	assert.NoError(t, engine.dispatch(context.Background(), messaging.Message{Headers: map[string]string{event.HeaderType: "unknown.event"}}))
	assert.NoError(t, engine.dispatch(context.Background(), messaging.Message{Value: []byte("not json")}))
}

func TestDispatch_FallsBackToEnvelopeType(t *testing.T) {
	rec := &recorder{}
	engine := NewEngine(Params{
		Client:        &testkit.Bus{},
		Logger:        zap.NewNop(),
		Config:        enabled(),
		Registrations: []HandlerRegistration{{Event: event.SaleCompleted, Name: "c", Handler: rec.handler("c", nil)}},
	})

	msg := messaging.Message{Value: []byte(`{"type":"pos.sale_completed","id":"x","payload":{}}`)}
	require.NoError(t, engine.dispatch(context.Background(), msg))
	assert.Len(t, rec.snapshot(), 1)
}

func TestEngine_ConsumesPublishedEvents(t *testing.T) {
	bus := &testkit.Bus{}
	pub := event.NewPublisher(bus, zap.NewNop())
	pub.Publish(context.Background(), event.ServiceOrderOpened, event.OrderKey(1), event.OrderOpened{OrderID: 1})
	pub.Publish(context.Background(), event.StockLow, event.PartKey(2), event.PartLow{PartID: 2})

	rec := &recorder{}
	engine := NewEngine(Params{
		Client: bus,
		Logger: zap.NewNop(),
		Config: enabled(),
		Registrations: []HandlerRegistration{
			{Event: event.ServiceOrderOpened, Name: "x", Handler: rec.handler("x", nil)},
			{Event: event.StockLow, Name: "x", Handler: rec.handler("x", nil)},
		},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.stop(ctx))
	assert.Equal(t, []string{"x:service_order.opened", "x:stock.low"}, rec.snapshot())
}

func TestEngine_DisabledIsNoop(t *testing.T) {
	engine := NewEngine(Params{Client: &testkit.Bus{}, Logger: zap.NewNop(), Config: config.Config{}})
	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	require.NoError(t, engine.stop(context.Background()))
}
