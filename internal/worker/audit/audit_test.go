package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/testkit"
)

func TestHandlers_LogEveryEventType(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	regs := NewHandlers(zap.New(core))
	require.Len(t, regs, 4)

	bus := &testkit.Bus{}
	pub := event.NewPublisher(bus, zap.NewNop())
	ctx := context.Background()
	pub.Publish(ctx, event.ServiceOrderOpened, event.OrderKey(1), event.OrderOpened{OrderID: 1, Number: 1001})
	pub.Publish(ctx, event.ServiceOrderStatusChanged, event.OrderKey(1), event.OrderStatusChanged{OrderID: 1, From: "OPEN", To: "QUOTATION"})
	pub.Publish(ctx, event.StockLow, event.PartKey(3), event.PartLow{PartID: 3, SKU: "FLT-01", Stock: 1, MinStock: 2})
	pub.Publish(ctx, event.SaleCompleted, event.SaleKey(4), event.SaleDone{SaleID: 4, Total: "90.00", PaymentMethod: "CASH", Parts: []int64{3}})

	for i, msg := range bus.Messages {
		require.NoError(t, regs[i].Handler(ctx, msg))
	}

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 4)
	assert.Equal(t, "QUOTATION", entries[1].ContextMap()["to"])
	assert.Equal(t, "FLT-01", entries[2].ContextMap()["sku"])
	assert.Equal(t, "90.00", entries[3].ContextMap()["total"])
}

func TestHandlers_BadPayloadIsLoggedNotRetried(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	regs := NewHandlers(zap.New(core))

	bus := &testkit.Bus{}
	event.NewPublisher(bus, zap.NewNop()).Publish(context.Background(), event.StockLow, "k", "not an object")

	require.NoError(t, regs[2].Handler(context.Background(), bus.Messages[0]))
	assert.Equal(t, 1, logs.FilterMessage("failed to decode event payload").Len())
}
