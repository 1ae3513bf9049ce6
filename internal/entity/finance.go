package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// TransactionType is INCOME or EXPENSE.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Valid reports whether t is known.
func (t TransactionType) Valid() bool { return t == Income || t == Expense }

// TransactionStatus tracks settlement.
type TransactionStatus string

const (
	TransactionPaid      TransactionStatus = "PAID"
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Valid reports whether s is known.
func (s TransactionStatus) Valid() bool {
	return s == TransactionPaid || s == TransactionPending || s == TransactionCancelled
}

// Transaction is a financial entry.
type Transaction struct {
	bun.BaseModel `bun:"table:finance_transactions,alias:ft"`

	ID             int64             `bun:",pk,autoincrement" json:"id"`
	Date           time.Time         `bun:"date,type:date,notnull" json:"date"`
	Description    string            `bun:",notnull" json:"description"`
	Type           TransactionType   `bun:",notnull" json:"type"`
	Amount         decimal.Decimal   `bun:"amount,type:numeric,notnull" json:"amount"`
	Status         TransactionStatus `bun:",notnull" json:"status"`
	DueDate        *time.Time        `bun:"due_date,type:date" json:"dueDate"`
	Category       *string           `bun:"category" json:"category"`
	ClientID       *int64            `bun:"client_id" json:"clientId"`
	ServiceOrderID *int64            `bun:"service_order_id" json:"serviceOrderId"`
	CostCenterID   *int64            `bun:"cost_center_id" json:"costCenterId"`
	CreatedAt      time.Time         `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time         `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// CostCenter groups expenses and income for reporting.
type CostCenter struct {
	bun.BaseModel `bun:"table:cost_centers,alias:cc"`

	ID        int64     `bun:",pk,autoincrement" json:"id"`
	Name      string    `bun:",notnull" json:"name"`
	IsActive  bool      `bun:",notnull" json:"isActive"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
