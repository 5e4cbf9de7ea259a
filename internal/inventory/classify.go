package inventory

// LowStockThreshold is the stock needed to cover demand over the lead time
// plus transit time. It is zero without a demand rate or lead time.
func LowStockThreshold(p Product) float64 {
	pasd := ToNumber(p.PASD, 0)
	leadTime := ToNumber(p.LeadTime, 0)
	if pasd <= 0 || leadTime <= 0 {
		return 0
	}
	transit := ToNumber(p.Transit, 0)
	return pasd * (leadTime + transit)
}

// Available is warehouse plus FBA stock.
func Available(p Product) float64 {
	return ToNumber(p.WH, 0) + ToNumber(p.FBA, 0)
}

// IsLowStock reports whether available stock falls short of the low-stock
// threshold.
func IsLowStock(p Product) bool {
	threshold := LowStockThreshold(p)
	return threshold > 0 && Available(p) < threshold
}

// IsOverstock reports the flag set by the Reconciler.
func IsOverstock(p Product) bool {
	return p.IsOverstock
}

func LowStockItems(products []Product) []Product {
	return filter(products, IsLowStock)
}

func OverstockItems(products []Product) []Product {
	return filter(products, IsOverstock)
}

func filter(products []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0)
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
