// Package payment charges card and PIX sales through an external provider.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/entity"
)

// ErrRejected is returned when the provider declines a charge.
var ErrRejected = errors.New("payment rejected")

// Charge describes one sale to be paid.
type Charge struct {
	Reference   string
	Description string
	Amount      decimal.Decimal
	Method      entity.PaymentMethod
	PayerEmail  string
}

// Result is the provider's answer for a charge that was not rejected.
type Result struct {
	ProviderID     string
	ProviderStatus string
	Status         entity.PaymentStatus
	Raw            json.RawMessage
}

// Gateway charges a sale and undoes a charge whose sale could not be stored.
type Gateway interface {
	Charge(ctx context.Context, c Charge) (Result, error)
	// Reverse refunds a paid charge or cancels a pending one.
	Reverse(ctx context.Context, r Result) error
}

// Module provides the configured Gateway.
var Module = fx.Provide(New)

// New selects the gateway named by PAYMENT_GATEWAY.
func New(cfg config.Config, logger *zap.Logger) (Gateway, error) {
	switch cfg.Payments.Gateway {
	case "mercadopago":
		return NewMercadoPago(cfg.Payments.MercadoPagoAccessToken, logger)
	case "", "mock":
		logger.Info("payment gateway in mock mode")
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported payment gateway: %s", cfg.Payments.Gateway)
	}
}

// StatusOf maps a provider status onto the sale payment status. Declined
// and reversed payments yield ErrRejected.
func StatusOf(providerStatus string) (entity.PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "approved", "authorized":
		return entity.PaymentPaid, nil
	case "pending", "in_process", "in_mediation":
		return entity.PaymentPending, nil
	case "rejected", "cancelled", "refunded", "charged_back":
		return "", fmt.Errorf("%w: provider status %s", ErrRejected, providerStatus)
	default:
		return "", fmt.Errorf("unknown provider status %q", providerStatus)
	}
}

// providerMethod names the payment method as the provider expects it.
func providerMethod(m entity.PaymentMethod) string {
	if m == entity.PaymentPix {
		return "pix"
	}
	return "credit_card"
}
