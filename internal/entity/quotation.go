package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// QuotationStatus is the lifecycle state of a quotation.
type QuotationStatus string

const (
	QuotationDraft    QuotationStatus = "DRAFT"
	QuotationSent     QuotationStatus = "SENT"
	QuotationApproved QuotationStatus = "APPROVED"
	QuotationRejected QuotationStatus = "REJECTED"
	QuotationExpired  QuotationStatus = "EXPIRED"
)

var quotationTransitions = map[QuotationStatus][]QuotationStatus{
	QuotationDraft:    {QuotationSent, QuotationApproved, QuotationRejected, QuotationExpired},
	QuotationSent:     {QuotationApproved, QuotationRejected, QuotationExpired},
	QuotationApproved: nil,
	QuotationRejected: nil,
	QuotationExpired:  nil,
}

// Valid reports whether s is known.
func (s QuotationStatus) Valid() bool {
	_, ok := quotationTransitions[s]
	return ok
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	for _, allowed := range quotationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ItemKind separates parts from labour on a quotation.
type ItemKind string

const (
	ItemPart  ItemKind = "PART"
	ItemLabor ItemKind = "LABOR"
)

// Quotation is a priced proposal for a repair.
type Quotation struct {
	bun.BaseModel `bun:"table:quotations,alias:q"`

	ID             int64           `bun:",pk,autoincrement" json:"id"`
	ServiceOrderID *int64          `bun:"service_order_id" json:"serviceOrderId"`
	ClientID       int64           `bun:",notnull" json:"clientId"`
	VehicleID      *int64          `bun:"vehicle_id" json:"vehicleId"`
	Status         QuotationStatus `bun:",notnull" json:"status"`
	ValidUntil     *time.Time      `bun:"valid_until,type:date" json:"validUntil"`
	Notes          *string         `bun:"notes" json:"notes"`
	Total          decimal.Decimal `bun:"total,type:numeric,notnull" json:"total"`
	CreatedAt      time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time       `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Items []QuotationItem `bun:"rel:has-many,join:id=quotation_id" json:"items"`
}

// QuotationItem is one priced line.
type QuotationItem struct {
	bun.BaseModel `bun:"table:quotation_items,alias:qi"`

	ID          int64           `bun:",pk,autoincrement" json:"id"`
	QuotationID int64           `bun:",notnull" json:"quotationId"`
	Description string          `bun:",notnull" json:"description"`
	Kind        ItemKind        `bun:",notnull" json:"kind"`
	PartID      *int64          `bun:"part_id" json:"partId"`
	Quantity    int             `bun:",notnull" json:"quantity"`
	UnitPrice   decimal.Decimal `bun:"unit_price,type:numeric,notnull" json:"unitPrice"`
	Total       decimal.Decimal `bun:"total,type:numeric,notnull" json:"total"`
}
