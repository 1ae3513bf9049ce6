package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuotationItemRequest is one line of a quotation.
type QuotationItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Kind        string          `json:"kind" validate:"required,oneof=PART LABOR"`
	PartID      *int64          `json:"partId"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// QuotationRequest creates a quotation, optionally attached to a service order.
type QuotationRequest struct {
	ServiceOrderID *int64                 `json:"serviceOrderId"`
	ClientID       int64                  `json:"clientId"`
	VehicleID      *int64                 `json:"vehicleId"`
	ValidUntil     Date                   `json:"validUntil"`
	Notes          string                 `json:"notes"`
	Items          []QuotationItemRequest `json:"items" validate:"required,min=1,dive"`
}

// QuotationStatusRequest moves a quotation through its lifecycle.
type QuotationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT SENT APPROVED REJECTED EXPIRED"`
}

// QuotationFilter narrows the quotation list.
type QuotationFilter struct {
	ServiceOrderID int64
	ClientID       int64
	Status         string
	Limit          int
}

// SaleItemRequest is one part sold at the counter.
type SaleItemRequest struct {
	PartID   int64 `json:"partId" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest completes a counter sale.
type CheckoutRequest struct {
	ClientID       *int64            `json:"clientId"`
	ServiceOrderID *int64            `json:"serviceOrderId"`
	Discount       decimal.Decimal   `json:"discount"`
	PaymentMethod  string            `json:"paymentMethod" validate:"required,oneof=CASH CARD PIX"`
	PayerEmail     string            `json:"payerEmail" validate:"omitempty,email"`
	Items          []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleFilter narrows the sale list.
type SaleFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// SaleRow is a sale with its client name and item count.
type SaleRow struct {
	ID                int64           `bun:"id" json:"id"`
	Number            int64           `bun:"number" json:"number"`
	ClientID          *int64          `bun:"client_id" json:"clientId"`
	ClientName        *string         `bun:"client_name" json:"clientName"`
	ServiceOrderID    *int64          `bun:"service_order_id" json:"serviceOrderId"`
	Subtotal          decimal.Decimal `bun:"subtotal" json:"subtotal"`
	Discount          decimal.Decimal `bun:"discount" json:"discount"`
	Total             decimal.Decimal `bun:"total" json:"total"`
	PaymentMethod     string          `bun:"payment_method" json:"paymentMethod"`
	PaymentStatus     string          `bun:"payment_status" json:"paymentStatus"`
	ProviderPaymentID *string         `bun:"provider_payment_id" json:"providerPaymentId"`
	ItemCount         int             `bun:"item_count" json:"itemCount"`
	CreatedAt         time.Time       `bun:"created_at" json:"createdAt"`
}

// CheckoutResult summarises a completed sale.
type CheckoutResult struct {
	SaleID            int64           `json:"saleId"`
	SaleNumber        int64           `json:"saleNumber"`
	Total             decimal.Decimal `json:"total"`
	PaymentStatus     string          `json:"paymentStatus"`
	ProviderPaymentID *string         `json:"providerPaymentId,omitempty"`
	TransactionID     int64           `json:"transactionId"`
}
