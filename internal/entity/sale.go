package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PaymentMethod is how a counter sale is paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentPix  PaymentMethod = "PIX"
)

// Valid reports whether m is known.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentPix
}

// NeedsGateway reports whether m is charged through the payment provider.
func (m PaymentMethod) NeedsGateway() bool {
	return m == PaymentCard || m == PaymentPix
}

// PaymentStatus records the settlement state of a sale.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPending PaymentStatus = "PENDING"
)

// Sale is a point-of-sale checkout.
type Sale struct {
	bun.BaseModel `bun:"table:sales,alias:s"`

	ID                int64           `bun:",pk,autoincrement" json:"id"`
	Number            int64           `bun:",nullzero,notnull" json:"number"`
	ClientID          *int64          `bun:"client_id" json:"clientId"`
	ServiceOrderID    *int64          `bun:"service_order_id" json:"serviceOrderId"`
	Subtotal          decimal.Decimal `bun:"subtotal,type:numeric,notnull" json:"subtotal"`
	Discount          decimal.Decimal `bun:"discount,type:numeric,notnull" json:"discount"`
	Total             decimal.Decimal `bun:"total,type:numeric,notnull" json:"total"`
	PaymentMethod     PaymentMethod   `bun:",notnull" json:"paymentMethod"`
	PaymentStatus     PaymentStatus   `bun:",notnull" json:"paymentStatus"`
	ProviderPaymentID *string         `bun:"provider_payment_id" json:"providerPaymentId"`
	CreatedAt         time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Items []SaleItem `bun:"rel:has-many,join:id=sale_id" json:"items"`
}

// SaleItem is one sold part.
type SaleItem struct {
	bun.BaseModel `bun:"table:sale_items,alias:si"`

	ID        int64           `bun:",pk,autoincrement" json:"id"`
	SaleID    int64           `bun:",notnull" json:"saleId"`
	PartID    int64           `bun:",notnull" json:"partId"`
	Quantity  int             `bun:",notnull" json:"quantity"`
	UnitPrice decimal.Decimal `bun:"unit_price,type:numeric,notnull" json:"unitPrice"`
	Total     decimal.Decimal `bun:"total,type:numeric,notnull" json:"total"`
}
