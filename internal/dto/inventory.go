package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartRequest creates or edits a part. Stock is only set on create; later
// changes go through movements.
type PartRequest struct {
	SKU        string          `json:"sku" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Stock      int             `json:"stock" validate:"gte=0"`
	MinStock   int             `json:"minStock" validate:"gte=0"`
	Unit       string          `json:"unit"`
	Category   string          `json:"category"`
	SupplierID *int64          `json:"supplierId"`
}

// PartFilter narrows the part list.
type PartFilter struct {
	Search   string
	Category string
	LowStock bool
	Limit    int
}

// MovementRequest changes stock.
type MovementRequest struct {
	Type      string `json:"type" validate:"required,oneof=IN OUT ADJUST"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Reason    string `json:"reason" validate:"required"`
	Reference string `json:"reference"`
}

// PartStockRow is a part with its supplier name, used for listings and export.
type PartStockRow struct {
	ID           int64           `bun:"id" json:"id"`
	SKU          string          `bun:"sku" json:"sku"`
	Name         string          `bun:"name" json:"name"`
	Category     *string         `bun:"category" json:"category"`
	Unit         string          `bun:"unit" json:"unit"`
	Price        decimal.Decimal `bun:"price" json:"price"`
	Cost         decimal.Decimal `bun:"cost" json:"cost"`
	Stock        int             `bun:"stock" json:"stock"`
	MinStock     int             `bun:"min_stock" json:"minStock"`
	SupplierID   *int64          `bun:"supplier_id" json:"supplierId"`
	SupplierName *string         `bun:"supplier_name" json:"supplierName"`
	StockValue   decimal.Decimal `bun:"stock_value" json:"stockValue"`
	UpdatedAt    time.Time       `bun:"updated_at" json:"updatedAt"`
}

// IsLow reports whether the row is at or below minimum.
func (r PartStockRow) IsLow() bool { return r.Stock <= r.MinStock }
