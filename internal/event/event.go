// Package event defines the domain events published to the message bus.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/messaging"
)

// Type names an event kind.
type Type string

const (
	ServiceOrderOpened        Type = "service_order.opened"
	ServiceOrderStatusChanged Type = "service_order.status_changed"
	StockLow                  Type = "stock.low"
	SaleCompleted             Type = "pos.sale_completed"
)

// HeaderType carries the event type on the transport so consumers can route
// without decoding the body.
const HeaderType = "event_type"

var tracer = otel.Tracer("github.com/Additional-Code/oficina/event")

// Envelope is the JSON body of every event.
type Envelope struct {
	Type       Type            `json:"type"`
	ID         string          `json:"id"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderOpened is the payload of ServiceOrderOpened.
type OrderOpened struct {
	OrderID   int64 `json:"orderId"`
	Number    int64 `json:"orderNumber"`
	ClientID  int64 `json:"clientId"`
	VehicleID int64 `json:"vehicleId"`
}

// OrderStatusChanged is the payload of ServiceOrderStatusChanged.
type OrderStatusChanged struct {
	OrderID int64  `json:"orderId"`
	Number  int64  `json:"orderNumber"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// PartLow is the payload of StockLow.
type PartLow struct {
	PartID   int64  `json:"partId"`
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
}

// SaleDone is the payload of SaleCompleted.
type SaleDone struct {
	SaleID        int64   `json:"saleId"`
	Number        int64   `json:"saleNumber"`
	Total         string  `json:"total"`
	PaymentMethod string  `json:"paymentMethod"`
	Parts         []int64 `json:"parts"`
}

// Decode reads the envelope out of a bus message.
func Decode(msg messaging.Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event envelope: %w", err)
	}
	if env.Type == "" {
		env.Type = Type(msg.Headers[HeaderType])
	}
	if env.Type == "" {
		return Envelope{}, errors.New("event type missing")
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into dst.
func (e Envelope) DecodePayload(dst any) error {
	if len(e.Payload) == 0 {
		return errors.New("event payload missing")
	}
	return json.Unmarshal(e.Payload, dst)
}

// Publisher emits events; failures are logged and never fail the caller.
type Publisher struct {
	client messaging.Client
	logger *zap.Logger
	now    func() time.Time
}

// Module provides the Publisher.
var Module = fx.Provide(NewPublisher)

// NewPublisher builds a Publisher over the messaging client.
func NewPublisher(client messaging.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger, now: time.Now}
}

// Publish wraps payload in an envelope keyed by key and sends it.
func (p *Publisher) Publish(ctx context.Context, typ Type, key string, payload any) {
	if p == nil || p.client == nil {
		return
	}
	ctx, span := tracer.Start(ctx, "event.Publish", trace.WithAttributes(
		attribute.String("event.type", string(typ)),
		attribute.String("event.key", key),
	))
	defer span.End()

	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal event payload", zap.String("type", string(typ)), zap.Error(err))
		return
	}

	env := Envelope{Type: typ, ID: uuid.NewString(), OccurredAt: p.now().UTC(), Payload: raw}
	body, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("marshal event envelope", zap.String("type", string(typ)), zap.Error(err))
		return
	}

	msg := messaging.Message{
		Key:     []byte(key),
		Value:   body,
		Headers: map[string]string{HeaderType: string(typ)},
	}
	if err := p.client.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		p.logger.Error("publish event", zap.String("type", string(typ)), zap.String("key", key), zap.Error(err))
	}
}

// OrderKey partitions events of one service order together.
func OrderKey(id int64) string { return fmt.Sprintf("service-order-%d", id) }

// PartKey partitions events of one part together.
func PartKey(id int64) string { return fmt.Sprintf("part-%d", id) }

// SaleKey partitions events of one sale together.
func SaleKey(id int64) string { return fmt.Sprintf("sale-%d", id) }
