package inventory

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Metrics is the dashboard summary of a product set.
type Metrics struct {
	TotalProducts        int     `json:"totalProducts"`
	TotalValue           float64 `json:"totalValue"`
	LowStockItems        int     `json:"lowStockItems"`
	OutOfStockItems      int     `json:"outOfStockItems"`
	AvgDRR               float64 `json:"avgDRR"`
	AvgDOC               float64 `json:"avgDOC"`
	TargetAchievement    float64 `json:"targetAchievement"`
	InventoryHealthScore int     `json:"inventoryHealthScore"`
	TotalTransit         float64 `json:"totalTransit"`
	ItemsInTransit       int     `json:"itemsInTransit"`
	TotalToOrder         float64 `json:"totalToOrder"`
	ItemsToOrder         int     `json:"itemsToOrder"`
	AvgPASD              float64 `json:"avgPASD"`
}

// DefaultMetrics is the summary shown when there is nothing to summarize.
func DefaultMetrics() Metrics {
	return Metrics{}
}

// CalculateMetrics summarizes products. Each average only counts products
// that carry the data it needs.
func CalculateMetrics(products []Product) (m Metrics) {
	if len(products) == 0 {
		log.Debug().Msg("no products for metrics calculation")
		return DefaultMetrics()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("metrics calculation failed")
			m = DefaultMetrics()
		}
	}()

	m.TotalProducts = len(products)

	var (
		pasdSum, docSum        float64
		pasdCount, docCount    int
		targetHits, targetSeen int
	)
	for _, p := range products {
		wh := ToNumber(p.WH, -1)
		pasd := ToNumber(p.PASD, 0)

		if IsLowStock(p) {
			m.LowStockItems++
		}
		if p.WH.Defined() {
			m.TotalValue += ToNumber(p.WH, 0)
		}
		if wh == 0 {
			m.OutOfStockItems++
		}

		if pasd > 0 {
			pasdSum += pasd
			pasdCount++
		}

		if days := ToNumber(p.DaysInvInHand, -1); days >= 0 {
			docSum += days
			docCount++
		} else if wh >= 0 && pasd > 0 {
			docSum += wh / pasd
			docCount++
		}

		// Negative transit and order quantities still count toward the totals.
		transit := ToNumber(p.Transit, 0)
		m.TotalTransit += transit
		if transit > 0 {
			m.ItemsInTransit++
		}
		toOrder := ToNumber(p.ToOrder, 0)
		m.TotalToOrder += toOrder
		if toOrder > 0 {
			m.ItemsToOrder++
		}

		if target := ToNumber(p.CTTargetInventory, 0); target > 0 && p.WH.Defined() {
			targetSeen++
			if ToNumber(p.WH, 0) >= target {
				targetHits++
			}
		}
	}

	if pasdCount > 0 {
		m.AvgDRR = pasdSum / float64(pasdCount)
		m.AvgPASD = m.AvgDRR
	}
	if docCount > 0 {
		m.AvgDOC = docSum / float64(docCount)
	}
	if targetSeen > 0 {
		m.TargetAchievement = float64(targetHits) / float64(targetSeen) * 100
	}

	stockoutRisk := float64(m.LowStockItems) / float64(m.TotalProducts) * 100
	m.InventoryHealthScore = HealthScore(stockoutRisk, m.TargetAchievement, m.AvgDRR)

	// Sums of very large cells can overflow; JSON has no infinity.
	for _, f := range []*float64{&m.TotalValue, &m.AvgDRR, &m.AvgDOC, &m.TargetAchievement, &m.TotalTransit, &m.TotalToOrder, &m.AvgPASD} {
		*f = finiteOrZero(*f)
	}
	return m
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// HealthScore combines stockout risk, target achievement and demand rate into
// a 0-100 score.
func HealthScore(stockoutRisk, targetAchievement, avgDRR float64) int {
	efficiency := (100 - stockoutRisk*0.5 + targetAchievement*0.3 + avgDRR*10) / 1.8
	if math.IsNaN(efficiency) {
		return 0
	}
	clamped := math.Min(math.Max(efficiency, 0), 100)
	return int(math.Floor(clamped + 0.5))
}
