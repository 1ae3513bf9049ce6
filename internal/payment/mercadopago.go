package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/entity"
)

// ErrMissingAccessToken is returned when the Mercado Pago gateway has no credentials.
var ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")

type paymentAPI interface {
	Create(ctx context.Context, request mppayment.Request) (*mppayment.Response, error)
	Cancel(ctx context.Context, id int) (*mppayment.Response, error)
}

type refundAPI interface {
	Create(ctx context.Context, paymentID int) (*refund.Response, error)
}

// MercadoPago charges through the Mercado Pago payments API.
type MercadoPago struct {
	client  paymentAPI
	refunds refundAPI
	logger  *zap.Logger
}

// NewMercadoPago builds a gateway from an access token.
func NewMercadoPago(accessToken string, logger *zap.Logger) (*MercadoPago, error) {
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mercadopago payment gateway initialized")
	return &MercadoPago{client: mppayment.NewClient(cfg), refunds: refund.NewClient(cfg), logger: logger}, nil
}

// Charge implements Gateway.
func (g *MercadoPago) Charge(ctx context.Context, c Charge) (Result, error) {
	payload, err := json.Marshal(map[string]any{
		"transaction_amount": c.Amount.InexactFloat64(),
		"description":        c.Description,
		"external_reference": c.Reference,
		"payment_method_id":  providerMethod(c.Method),
		"installments":       1,
		"payer":              map[string]any{"email": c.PayerEmail},
	})
	if err != nil {
		return Result{}, err
	}
	var req mppayment.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Result{}, fmt.Errorf("build payment request: %w", err)
	}

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		g.logger.Warn("mercadopago create payment failed", zap.String("reference", c.Reference), zap.Error(err))
		return Result{}, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return Result{}, err
	}
	providerID := fmt.Sprintf("%d", resp.ID)
	g.logger.Info("mercadopago payment created",
		zap.String("reference", c.Reference),
		zap.String("provider_payment_id", providerID),
		zap.String("provider_status", resp.Status),
	)

	status, err := StatusOf(resp.Status)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ProviderID:     providerID,
		ProviderStatus: resp.Status,
		Status:         status,
		Raw:            raw,
	}, nil
}

// Reverse implements Gateway. Approved payments are refunded in full;
// pending ones are cancelled.
func (g *MercadoPago) Reverse(ctx context.Context, r Result) error {
	id, err := strconv.Atoi(r.ProviderID)
	if err != nil {
		return fmt.Errorf("invalid provider payment id %q: %w", r.ProviderID, err)
	}

	if r.Status == entity.PaymentPaid {
		_, err = g.refunds.Create(ctx, id)
	} else {
		_, err = g.client.Cancel(ctx, id)
	}
	if err != nil {
		g.logger.Error("mercadopago reversal failed", zap.String("provider_payment_id", r.ProviderID), zap.Error(err))
		return fmt.Errorf("reverse payment %s: %w", r.ProviderID, err)
	}
	g.logger.Info("mercadopago payment reversed",
		zap.String("provider_payment_id", r.ProviderID),
		zap.String("sale_payment_status", string(r.Status)),
	)
	return nil
}
