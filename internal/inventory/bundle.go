package inventory

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const DefaultOverstockMargin = 1.5

// Link ties a pack SKU to the base unit it contains.
type Link struct {
	BaseSKU  string
	PackSize int
}

// Linker decides whether a product is a multi-pack of some base unit.
type Linker interface {
	Link(p Product) (Link, bool)
}

// ExplicitLinker reads the parentSku and unitsPerPack columns.
type ExplicitLinker struct{}

func (ExplicitLinker) Link(p Product) (Link, bool) {
	if !truthy(p.ParentSKU) {
		return Link{}, false
	}
	base := strings.TrimSpace(ToText(p.ParentSKU, ""))
	size := ToNumber(p.UnitsPerPack, 0)
	if base == "" || size < 2 {
		return Link{}, false
	}
	return Link{BaseSKU: base, PackSize: int(size)}, true
}

// Pack naming conventions, matched against the upper-cased SKU. The base part
// must be separated from the pack marker: "SOAP-PACK3", "SOAP_3PK",
// "SOAP COMBO OF 2".
var packPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)[\s_-]+(?:PACK|PCK|PK|P|X)\s*(?:OF\s*)?(\d+)$`),
	regexp.MustCompile(`^(.+?)[\s_-]+(\d+)\s*(?:PACK|PCK|PK|P|X)$`),
	regexp.MustCompile(`^(.+?)[\s_-]+(?:COMBO|BUNDLE|SET)[\s_-]*(?:OF[\s_-]*)?(\d+)$`),
}

// SuffixLinker infers the relation from the SKU naming convention.
type SuffixLinker struct{}

func (SuffixLinker) Link(p Product) (Link, bool) {
	sku := strings.ToUpper(strings.TrimSpace(p.SKU))
	for _, re := range packPatterns {
		m := re.FindStringSubmatch(sku)
		if m == nil {
			continue
		}
		size, err := strconv.Atoi(m[2])
		if err != nil || size < 2 {
			continue
		}
		return Link{BaseSKU: m[1], PackSize: size}, true
	}
	return Link{}, false
}

// ChainLinker returns the first link any of its linkers finds.
type ChainLinker []Linker

func (c ChainLinker) Link(p Product) (Link, bool) {
	for _, l := range c {
		if link, ok := l.Link(p); ok {
			return link, true
		}
	}
	return Link{}, false
}

// Reconciler links pack SKUs to their base units, converts order quantities
// to base units and flags overstock.
type Reconciler struct {
	linker Linker
	margin float64
}

type ReconcilerOption func(*Reconciler)

func WithLinker(l Linker) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.linker = l
		}
	}
}

// WithOverstockMargin sets how far above target stock must be to count as
// overstock. Values not above 1 are ignored.
func WithOverstockMargin(m float64) ReconcilerOption {
	return func(r *Reconciler) {
		if m > 1 && !math.IsInf(m, 0) {
			r.margin = m
		}
	}
}

func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		linker: ChainLinker{ExplicitLinker{}, SuffixLinker{}},
		margin: DefaultOverstockMargin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Margin() float64 { return r.margin }

// Reconcile returns enriched copies of products; the input is not modified.
func (r *Reconciler) Reconcile(products []Product) []Product {
	out := CloneProducts(products)

	index := make(map[string]int, len(out))
	for i := range out {
		key := skuKey(out[i].SKU)
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	// bundleOf[i] is the base index of pack i, or -1.
	bundleOf := make([]int, len(out))
	packOf := make([]int, len(out))
	for i := range out {
		bundleOf[i] = -1
		link, ok := r.linker.Link(out[i])
		if !ok || link.PackSize < 2 {
			continue
		}
		base, ok := index[skuKey(link.BaseSKU)]
		if !ok || base == i {
			continue
		}
		bundleOf[i] = base
		packOf[i] = link.PackSize
	}
	// A pack cannot be the base of another pack.
	linked := append([]int(nil), bundleOf...)
	for i, base := range linked {
		if base >= 0 && linked[base] >= 0 {
			bundleOf[i] = -1
		}
	}

	members := make(map[int][]int)
	for i, base := range bundleOf {
		if base >= 0 {
			members[base] = append(members[base], i)
		}
	}

	for i := range out {
		p := &out[i]
		toOrder := ToNumber(p.ToOrder, 0)
		p.IsBaseUnit = true
		p.PackSize = 1
		p.BundledSKUs = []string{}
		p.FinalToOrderBaseUnits = toOrder

		switch {
		case bundleOf[i] >= 0:
			p.IsBaseUnit = false
			p.PackSize = packOf[i]
			p.FinalToOrderBaseUnits = toOrder * float64(packOf[i])
		case len(members[i]) > 0:
			var bundleDemand float64
			for _, m := range members[i] {
				p.BundledSKUs = append(p.BundledSKUs, out[m].SKU)
				bundleDemand += ToNumber(out[m].PASD, 0) * float64(packOf[m])
			}
			p.FinalToOrderBaseUnits = baseUnitOrder(toOrder, ToNumber(p.PASD, 0), bundleDemand)
		}

		p.FinalToOrderBaseUnits = finiteOrZero(p.FinalToOrderBaseUnits)
		p.IsOverstock = r.overstocked(*p)
	}

	if len(members) > 0 {
		log.Debug().Int("base_units", len(members)).Msg("linked pack SKUs to base units")
	}
	return out
}

// baseUnitOrder scales the base unit's order down to the share of its demand
// that is not already met through pack sales.
func baseUnitOrder(toOrder, pasd, bundleDemand float64) float64 {
	if pasd <= 0 {
		return toOrder
	}
	independent := math.Max(0, pasd-bundleDemand)
	return math.Max(0, math.Ceil(toOrder*independent/pasd))
}

func (r *Reconciler) overstocked(p Product) bool {
	target := ToNumber(p.CTTargetInventory, 0)
	if target <= 0 {
		target = LowStockThreshold(p)
	}
	return target > 0 && Available(p) > target*r.margin
}

func skuKey(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
