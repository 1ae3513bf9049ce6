package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Part is an inventory item.
type Part struct {
	bun.BaseModel `bun:"table:parts,alias:p"`

	ID         int64           `bun:",pk,autoincrement" json:"id"`
	SKU        string          `bun:"sku,notnull" json:"sku"`
	Name       string          `bun:",notnull" json:"name"`
	Price      decimal.Decimal `bun:"price,type:numeric,notnull" json:"price"`
	Cost       decimal.Decimal `bun:"cost,type:numeric,notnull" json:"cost"`
	Stock      int             `bun:"stock,notnull" json:"stock"`
	MinStock   int             `bun:"min_stock,notnull" json:"minStock"`
	Unit       string          `bun:",notnull" json:"unit"`
	Category   *string         `bun:"category" json:"category"`
	SupplierID *int64          `bun:"supplier_id" json:"supplierId"`
	CreatedAt  time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// IsLow reports whether the part is at or below its minimum.
func (p Part) IsLow() bool {
	return p.Stock <= p.MinStock
}

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjust
}

// Apply computes the stock after moving qty units. ADJUST sets the stock to qty.
func (t MovementType) Apply(current, qty int) int {
	switch t {
	case MovementIn:
		return current + qty
	case MovementOut:
		return current - qty
	default:
		return qty
	}
}

// StockMovement is an append-only audit row of a stock change.
type StockMovement struct {
	bun.BaseModel `bun:"table:stock_movements,alias:sm"`

	ID            int64        `bun:",pk,autoincrement" json:"id"`
	PartID        int64        `bun:",notnull" json:"partId"`
	Type          MovementType `bun:",notnull" json:"type"`
	Quantity      int          `bun:",notnull" json:"quantity"`
	PreviousStock int          `bun:",notnull" json:"previousStock"`
	NewStock      int          `bun:",notnull" json:"newStock"`
	Reason        string       `bun:",notnull" json:"reason"`
	Reference     *string      `bun:"reference" json:"reference"`
	CreatedAt     time.Time    `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
