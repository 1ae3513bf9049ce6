package cache

import "fmt"

// PatioBoardKey holds the cached yard board.
const PatioBoardKey = "patio:board"

// ClientKey caches a single client record.
func ClientKey(id int64) string {
	return fmt.Sprintf("clients:%d", id)
}

// VehiclePlateKey caches a vehicle lookup by normalised plate.
func VehiclePlateKey(plate string) string {
	return "vehicles:plate:" + plate
}

// FinanceSummaryPrefix prefixes every cached finance summary.
const FinanceSummaryPrefix = "finance:summary:"

// FinanceSummaryKey caches a finance summary for a period.
func FinanceSummaryKey(from, to string) string {
	return fmt.Sprintf("%s%s:%s", FinanceSummaryPrefix, from, to)
}
