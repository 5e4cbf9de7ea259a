package inventory

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func sampleRows() []RawRow {
	return []RawRow{
		NewRawRow(
			"Brand", "Acme", "Product", "Soap", "Variant", "Lavender",
			"SKU", "SOAP-01", "Category", "Bath",
			"PASD", "10", "Lead Time", "5 days", "Transit", 2,
			"WH", 50, "FBA", 0, "CT Target Inventory", 40,
			"No.of Days Inv Inhand", "4.5", "To Order", 20,
		),
		NewRawRow("Product Name", "Olive Oil", "skuid", "OIL-1", "productcategory", "Kitchen", "wh", "0"),
		NewRawRow("Unknown Column", "x"),
	}
}

func TestNormalizeOneProductPerRow(t *testing.T) {
	for n := 0; n < 5; n++ {
		rows := make([]RawRow, n)
		for i := range rows {
			rows[i] = NewRawRow("col", i)
		}
		if got := len(Normalize(rows)); got != n {
			t.Errorf("Normalize(%d rows) returned %d products", n, got)
		}
	}
}

func TestNormalizeFields(t *testing.T) {
	products := Normalize(sampleRows())

	soap := products[0]
	if soap.Name != "Acme Soap Lavender" {
		t.Errorf("name = %q", soap.Name)
	}
	if soap.SKU != "SOAP-01" || soap.Category != "Bath" {
		t.Errorf("sku/category = %q/%q", soap.SKU, soap.Category)
	}
	if !soap.LeadTime.Equal(Number(5)) {
		t.Errorf("lead time = %#v, want 5", soap.LeadTime)
	}
	if !soap.PASD.Equal(Text("10")) {
		t.Errorf("pasd should stay raw, got %#v", soap.PASD)
	}
	if soap.DRR == nil || *soap.DRR != 10 {
		t.Errorf("drr = %v, want 10", soap.DRR)
	}
	if soap.DOC == nil || *soap.DOC != 4.5 {
		t.Errorf("doc = %v, want 4.5", soap.DOC)
	}
	if soap.Target == nil || *soap.Target != 40 {
		t.Errorf("target = %v, want 40", soap.Target)
	}
	if soap.SalesHistory == nil || len(soap.SalesHistory) != 0 {
		t.Errorf("sales history should be empty, got %v", soap.SalesHistory)
	}

	oil := products[1]
	if oil.Name != "Olive Oil" || oil.SKU != "OIL-1" || oil.Category != "Kitchen" {
		t.Errorf("alias fields not resolved: %q %q %q", oil.Name, oil.SKU, oil.Category)
	}
	if oil.DRR != nil || oil.DOC != nil || oil.Target != nil {
		t.Errorf("derived fields must stay unset when source is absent")
	}
	if oil.Brand.Defined() {
		t.Errorf("absent brand should be undefined, got %#v", oil.Brand)
	}
}

func TestNormalizeGeneratedIdentity(t *testing.T) {
	p := Normalize([]RawRow{NewRawRow("Unknown Column", "x")})[0]
	if !strings.HasPrefix(p.Name, "Product ") || p.Name != "Product "+p.ID {
		t.Errorf("name = %q, want generated from id %q", p.Name, p.ID)
	}
	if !strings.HasPrefix(p.SKU, "SKU-") || p.SKU != "SKU-"+p.ID {
		t.Errorf("sku = %q, want generated from id %q", p.SKU, p.ID)
	}
	if p.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", p.Category, DefaultCategory)
	}
	if len(p.ID) != 8 {
		t.Errorf("id %q should be 8 characters", p.ID)
	}
}

func TestNormalizeEmptyValuesFallBack(t *testing.T) {
	p := Normalize([]RawRow{NewRawRow("Product Name", "", "SKU", "", "Category", "", "Brand", "Acme")})[0]
	if p.Name != "Acme" {
		t.Errorf("name = %q, want brand fallback", p.Name)
	}
	if p.SKU != "SKU-"+p.ID {
		t.Errorf("empty sku should fall back, got %q", p.SKU)
	}
	if p.Category != DefaultCategory {
		t.Errorf("empty category should fall back, got %q", p.Category)
	}
}

func TestNormalizeIDsNotContentDerived(t *testing.T) {
	rows := sampleRows()
	first := Normalize(rows)
	second := Normalize(rows)

	for i := range first {
		if first[i].ID == second[i].ID {
			t.Errorf("row %d kept id %q across runs", i, first[i].ID)
		}
		a, b := first[i], second[i]
		a.ID, b.ID = "", ""
		if i == 2 {
			// Generated name and sku embed the id.
			a.Name, b.Name, a.SKU, b.SKU = "", "", "", ""
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("row %d differs beyond id:\n%#v\n%#v", i, a, b)
		}
	}

	seen := map[string]bool{}
	for _, p := range first {
		if seen[p.ID] {
			t.Errorf("duplicate id %q in one batch", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestNormalizeRowFailureYieldsPlaceholder(t *testing.T) {
	saved := productFields
	defer func() { productFields = saved }()
	productFields = append([]fieldSpec{{
		name: "brand",
		dst:  func(*Product) *Value { panic("bad cell") },
	}}, saved...)

	products := Normalize([]RawRow{NewRawRow("Brand", "x"), NewRawRow("wh", 1)})
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	for _, p := range products {
		if p.Category != ErrorCategory {
			t.Errorf("category = %q, want %q", p.Category, ErrorCategory)
		}
		if p.Name != "Product "+p.ID || p.SKU != "SKU-"+p.ID {
			t.Errorf("placeholder identity wrong: %q %q", p.Name, p.SKU)
		}
		if p.SalesHistory == nil {
			t.Errorf("placeholder sales history should be empty, not nil")
		}
	}
}

func TestNormalizeEmptyBatch(t *testing.T) {
	if got := Normalize(nil); got == nil || len(got) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty slice", got)
	}
}

func TestProductJSONOmitsUndefinedFields(t *testing.T) {
	p := Normalize([]RawRow{NewRawRow("WH", 0, "Remark", nil)})[0]
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["brand"]; ok {
		t.Errorf("undefined brand should be omitted: %s", data)
	}
	if v, ok := decoded["wh"]; !ok || v != float64(0) {
		t.Errorf("wh should be present as 0: %s", data)
	}
	if v, ok := decoded["remark"]; !ok || v != nil {
		t.Errorf("null remark should be present as null: %s", data)
	}
}
