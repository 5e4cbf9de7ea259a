package domain

import (
	"time"

	"github.com/andresuchdata/invpulse/internal/inventory"
)

// Period is the reporting month a spreadsheet covers, when it can be told.
type Period struct {
	Day   int    `json:"day,omitempty"`
	Month int    `json:"month,omitempty"`
	Year  int    `json:"year,omitempty"`
	Label string `json:"label,omitempty"`
}

// IsZero reports whether no period was found.
func (p Period) IsZero() bool {
	return p.Month == 0 && p.Year == 0 && p.Label == ""
}

// Snapshot is one loaded product set and its summary. A snapshot is never
// modified after it is published; a new load replaces it as a whole.
type Snapshot struct {
	Version    uint64              `json:"version"`
	Source     string              `json:"source"`
	FileName   string              `json:"fileName,omitempty"`
	Period     Period              `json:"period,omitzero"`
	LoadedAt   time.Time           `json:"loadedAt"`
	Products   []inventory.Product `json:"products"`
	Metrics    inventory.Metrics   `json:"metrics"`
	LowStock   int                 `json:"lowStockCount"`
	Overstock  int                 `json:"overstockCount"`
	Categories []string            `json:"categories"`
}

// Summary is a snapshot without its product list.
type Summary struct {
	Version    uint64            `json:"version"`
	Source     string            `json:"source"`
	FileName   string            `json:"fileName,omitempty"`
	Period     Period            `json:"period,omitzero"`
	LoadedAt   time.Time         `json:"loadedAt"`
	Metrics    inventory.Metrics `json:"metrics"`
	Products   int               `json:"productCount"`
	LowStock   int               `json:"lowStockCount"`
	Overstock  int               `json:"overstockCount"`
	Categories []string          `json:"categories"`
}

func (s *Snapshot) Summary() Summary {
	return Summary{
		Version:    s.Version,
		Source:     s.Source,
		FileName:   s.FileName,
		Period:     s.Period,
		LoadedAt:   s.LoadedAt,
		Metrics:    s.Metrics,
		Products:   len(s.Products),
		LowStock:   s.LowStock,
		Overstock:  s.Overstock,
		Categories: s.Categories,
	}
}
