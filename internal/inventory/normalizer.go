package inventory

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCategory = "Uncategorized"
	ErrorCategory   = "Error"
)

// newID returns the short opaque id given to each product of a batch.
var newID = func() string {
	return uuid.NewString()[:8]
}

// Normalize turns a batch of raw rows into products, one per row. A row that
// cannot be processed becomes a placeholder product in the Error category.
func Normalize(rows []RawRow) []Product {
	if len(rows) == 0 {
		log.Warn().Msg("no rows to normalize")
		return []Product{}
	}

	products := make([]Product, len(rows))
	for i, row := range rows {
		products[i] = normalizeRow(i, row)
	}
	return products
}

func normalizeRow(index int, row RawRow) (p Product) {
	id := newID()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int("row", index).
				Str("panic", fmt.Sprint(r)).
				Msg("failed to normalize row, using placeholder")
			p = placeholder(id)
		}
	}()

	res := NewResolver(row)
	p = Product{ID: id, SalesHistory: []SalesPoint{}}
	for _, f := range productFields {
		*f.dst(&p) = res.Resolve(f.name, f.aliases...)
	}
	p.LeadTime = res.ResolveLeadTime(leadTimeAliases...)

	sku := res.Resolve("sku", skuAliases...)
	category := res.Resolve("category", categoryAliases...)

	p.Name = displayName(p)
	p.SKU = "SKU-" + id
	if truthy(sku) {
		p.SKU = ToText(sku, p.SKU)
	}
	p.Category = DefaultCategory
	if truthy(category) {
		p.Category = ToText(category, DefaultCategory)
	}

	p.DRR = definedNumber(p.PASD)
	p.DOC = definedNumber(p.DaysInvInHand)
	p.Target = definedNumber(p.CTTargetInventory)
	return p
}

// displayName prefers the product name column, then brand, product and
// variant joined, then a generated label.
func displayName(p Product) string {
	if truthy(p.ProductName) {
		return ToText(p.ProductName, "")
	}
	parts := []string{textOrEmpty(p.Brand), textOrEmpty(p.Product), textOrEmpty(p.Variant)}
	if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
		return joined
	}
	return "Product " + p.ID
}

func textOrEmpty(v Value) string {
	if !truthy(v) {
		return ""
	}
	return ToText(v, "")
}

// definedNumber is nil for undefined cells and for values JSON cannot carry.
func definedNumber(v Value) *float64 {
	if !v.Defined() {
		return nil
	}
	f := ToNumber(v, 0)
	if math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func placeholder(id string) Product {
	return Product{
		ID:           id,
		Name:         "Product " + id,
		SKU:          "SKU-" + id,
		Category:     ErrorCategory,
		SalesHistory: []SalesPoint{},
	}
}
