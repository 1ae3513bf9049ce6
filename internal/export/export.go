// Package export renders stock and finance reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Additional-Code/oficina/internal/dto"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names used in generated workbooks.
const (
	StockSheet        = "Stock"
	TransactionsSheet = "Transactions"
	SummarySheet      = "Summary"
)

type sheet struct {
	name     string
	headings []string
	rows     [][]any
}

// Stock writes the part list with stock value and a low-stock flag.
func Stock(w io.Writer, parts []dto.PartStockRow) error {
	rows := make([][]any, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []any{
			p.SKU,
			p.Name,
			deref(p.Category),
			p.Unit,
			p.Stock,
			p.MinStock,
			p.Cost.InexactFloat64(),
			p.Price.InexactFloat64(),
			p.StockValue.InexactFloat64(),
			deref(p.SupplierName),
			yesNo(p.IsLow()),
		})
	}
	return write(w, sheet{
		name:     StockSheet,
		headings: []string{"SKU", "Name", "Category", "Unit", "Stock", "Min Stock", "Cost", "Price", "Stock Value", "Supplier", "Low"},
		rows:     rows,
	})
}

// Finance writes the period summary followed by every transaction.
func Finance(w io.Writer, summary dto.FinanceSummary, entries []dto.TransactionRow) error {
	rows := make([][]any, 0, len(entries))
	for _, t := range entries {
		rows = append(rows, []any{
			t.Date.Format("2006-01-02"),
			t.Description,
			t.Type,
			t.Status,
			t.Amount.InexactFloat64(),
			dateOrEmpty(t.DueDate),
			deref(t.Category),
			deref(t.ClientName),
			numberOrEmpty(t.OrderNumber),
			deref(t.CostCenterName),
		})
	}

	return write(w,
		sheet{
			name:     SummarySheet,
			headings: []string{"From", "To", "Income", "Expense", "Balance", "Pending Income", "Pending Expense", "Overdue"},
			rows: [][]any{{
				summary.From,
				summary.To,
				summary.Income.InexactFloat64(),
				summary.Expense.InexactFloat64(),
				summary.Balance.InexactFloat64(),
				summary.PendingIncome.InexactFloat64(),
				summary.PendingExpense.InexactFloat64(),
				summary.OverdueCount,
			}},
		},
		sheet{
			name:     TransactionsSheet,
			headings: []string{"Date", "Description", "Type", "Status", "Amount", "Due Date", "Category", "Client", "Order", "Cost Center"},
			rows:     rows,
		},
	)
}

func write(w io.Writer, sheets ...sheet) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return err
		}

		for col, heading := range sh.headings {
			if err := setCell(f, sh.name, col+1, 1, heading); err != nil {
				return err
			}
		}
		for r, row := range sh.rows {
			for col, value := range row {
				if err := setCell(f, sh.name, col+1, r+2, value); err != nil {
					return err
				}
			}
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

func setCell(f *excelize.File, sheetName string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheetName, cell, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func numberOrEmpty(n *int64) any {
	if n == nil {
		return ""
	}
	return *n
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
