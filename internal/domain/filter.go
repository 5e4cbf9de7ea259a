package domain

import "strings"

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ProductFilter narrows the product list served by the dashboard.
type ProductFilter struct {
	Category string
	Query    string
	Status   StockStatus
	Page     int
	PageSize int
}

// Normalize trims text fields and clamps paging to sane bounds.
func (f ProductFilter) Normalize() ProductFilter {
	f.Category = strings.TrimSpace(f.Category)
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the index of the first item on the filter's page.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
