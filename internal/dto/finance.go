package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest creates or edits a financial entry.
type TransactionRequest struct {
	Date           Date            `json:"date"`
	Description    string          `json:"description" validate:"required"`
	Type           string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status" validate:"omitempty,oneof=PAID PENDING CANCELLED"`
	DueDate        Date            `json:"dueDate"`
	Category       string          `json:"category"`
	ClientID       *int64          `json:"clientId"`
	ServiceOrderID *int64          `json:"serviceOrderId"`
	CostCenterID   *int64          `json:"costCenterId"`
}

// TransactionFilter narrows the finance list.
type TransactionFilter struct {
	Type   string
	Status string
	From   time.Time
	To     time.Time
	Limit  int
}

// TransactionRow is a financial entry with its related names.
type TransactionRow struct {
	ID             int64           `bun:"id" json:"id"`
	Date           time.Time       `bun:"date" json:"date"`
	Description    string          `bun:"description" json:"description"`
	Type           string          `bun:"type" json:"type"`
	Amount         decimal.Decimal `bun:"amount" json:"amount"`
	Status         string          `bun:"status" json:"status"`
	DueDate        *time.Time      `bun:"due_date" json:"dueDate"`
	Category       *string         `bun:"category" json:"category"`
	ClientID       *int64          `bun:"client_id" json:"clientId"`
	ClientName     *string         `bun:"client_name" json:"clientName"`
	ServiceOrderID *int64          `bun:"service_order_id" json:"serviceOrderId"`
	OrderNumber    *int64          `bun:"order_number" json:"orderNumber"`
	CostCenterID   *int64          `bun:"cost_center_id" json:"costCenterId"`
	CostCenterName *string         `bun:"cost_center_name" json:"costCenterName"`
}

// FinanceSummary totals a period.
type FinanceSummary struct {
	From           string          `bun:"-" json:"from"`
	To             string          `bun:"-" json:"to"`
	Income         decimal.Decimal `bun:"income" json:"income"`
	Expense        decimal.Decimal `bun:"expense" json:"expense"`
	Balance        decimal.Decimal `bun:"-" json:"balance"`
	PendingIncome  decimal.Decimal `bun:"pending_income" json:"pendingIncome"`
	PendingExpense decimal.Decimal `bun:"pending_expense" json:"pendingExpense"`
	OverdueCount   int64           `bun:"overdue_count" json:"overdueCount"`
}

// CostCenterRequest creates a cost center.
type CostCenterRequest struct {
	Name string `json:"name" validate:"required"`
}
