package inventory

import "testing"

func stockProduct(pasd, leadTime, transit, wh, fba any) Product {
	return Product{
		PASD:     valueOf(pasd),
		LeadTime: valueOf(leadTime),
		Transit:  valueOf(transit),
		WH:       valueOf(wh),
		FBA:      valueOf(fba),
	}
}

func TestIsLowStock(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want bool
	}{
		{"below threshold", stockProduct(10, 5, 2, 50, 0), true},
		{"at threshold", stockProduct(10, 5, 2, 70, 0), false},
		{"above threshold", stockProduct(10, 5, 2, 80, 0), false},
		{"fba counts toward available", stockProduct(10, 5, 2, 50, 30), false},
		{"text cells are coerced", stockProduct("10", "5", "2", "50", ""), true},
		{"missing transit", stockProduct(10, 5, nil, 40, nil), true},
		{"no demand rate", stockProduct(0, 5, 2, 0, 0), false},
		{"negative demand rate", stockProduct(-1, 5, 2, 0, 0), false},
		{"no lead time", stockProduct(10, 0, 2, 0, 0), false},
		{"unreadable lead time", stockProduct(10, "tbd", 2, 0, 0), false},
		{"negative transit cancels threshold", stockProduct(10, 5, -5, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLowStock(tt.p); got != tt.want {
				t.Errorf("IsLowStock = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsLowStockNeverWithoutDemandOrLeadTime(t *testing.T) {
	stocks := []float64{-100, 0, 1, 1e9}
	for _, pasd := range []float64{-3, 0} {
		for _, s := range stocks {
			if IsLowStock(stockProduct(pasd, 7, s, s, s)) {
				t.Errorf("pasd=%v stock=%v flagged low", pasd, s)
			}
			if IsLowStock(stockProduct(7, pasd, s, s, s)) {
				t.Errorf("leadTime=%v stock=%v flagged low", pasd, s)
			}
		}
	}
}

func TestClassificationFilters(t *testing.T) {
	low := stockProduct(10, 5, 2, 50, 0)
	low.SKU = "LOW"
	ok := stockProduct(10, 5, 2, 80, 0)
	ok.SKU = "OK"
	over := ok
	over.SKU = "OVER"
	over.IsOverstock = true

	products := []Product{low, ok, over}

	gotLow := LowStockItems(products)
	if len(gotLow) != 1 || gotLow[0].SKU != "LOW" {
		t.Errorf("LowStockItems = %v", gotLow)
	}
	gotOver := OverstockItems(products)
	if len(gotOver) != 1 || gotOver[0].SKU != "OVER" {
		t.Errorf("OverstockItems = %v", gotOver)
	}
	if got := LowStockItems(nil); got == nil || len(got) != 0 {
		t.Errorf("LowStockItems(nil) = %v, want empty", got)
	}
}
