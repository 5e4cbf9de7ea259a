package domain

import "strings"

// StockStatus buckets a product for dashboard filtering.
type StockStatus string

const (
	StatusAny        StockStatus = ""
	StatusLowStock   StockStatus = "low_stock"
	StatusOverstock  StockStatus = "overstock"
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusHealthy    StockStatus = "healthy"
)

var stockStatusAliases = map[string]StockStatus{
	"low_stock":    StatusLowStock,
	"low":          StatusLowStock,
	"overstock":    StatusOverstock,
	"over":         StatusOverstock,
	"out_of_stock": StatusOutOfStock,
	"oos":          StatusOutOfStock,
	"healthy":      StatusHealthy,
}

// ParseStockStatus returns the status for a label (case-insensitive, "-"
// and "_" interchangeable). An empty label means any status.
func ParseStockStatus(label string) (StockStatus, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "-", "_")
	if key == "" {
		return StatusAny, true
	}
	status, ok := stockStatusAliases[key]
	return status, ok
}

// StockStatusLabel returns a human-readable label for a status.
func StockStatusLabel(s StockStatus) string {
	switch s {
	case StatusLowStock:
		return "Low Stock"
	case StatusOverstock:
		return "Overstock"
	case StatusOutOfStock:
		return "Out of Stock"
	case StatusHealthy:
		return "Healthy"
	default:
		return "All"
	}
}
