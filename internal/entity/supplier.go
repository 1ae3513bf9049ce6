package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// SupplierType classifies a supplier.
type SupplierType string

const (
	SupplierParts         SupplierType = "PARTS"
	SupplierWorkshop      SupplierType = "WORKSHOP"
	SupplierRectification SupplierType = "RECTIFICATION"
	SupplierOther         SupplierType = "OTHER"
)

// Valid reports whether t is a known supplier type.
func (t SupplierType) Valid() bool {
	switch t {
	case SupplierParts, SupplierWorkshop, SupplierRectification, SupplierOther:
		return true
	}
	return false
}

// Supplier provides parts or outsourced services. Suppliers are deactivated, never deleted.
type Supplier struct {
	bun.BaseModel `bun:"table:suppliers,alias:sup"`

	ID          int64        `bun:",pk,autoincrement" json:"id"`
	Name        string       `bun:",notnull" json:"name"`
	Type        SupplierType `bun:",notnull" json:"type"`
	Document    *string      `bun:"document" json:"document"`
	ContactName *string      `bun:"contact_name" json:"contactName"`
	Phone       *string      `bun:"phone" json:"phone"`
	Email       *string      `bun:"email" json:"email"`
	Address     *string      `bun:"address" json:"address"`
	Notes       *string      `bun:"notes" json:"notes"`
	IsActive    bool         `bun:",notnull" json:"isActive"`
	CreatedAt   time.Time    `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time    `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
