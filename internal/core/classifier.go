package core

import (
	"fmt"
	"sort"
)

// Classification is the outcome of applying the decision rule to one record.
type Classification struct {
	Action         Action
	ActionQuantity int
	Justification  string
}

// Classify applies the three-way rule; the first matching branch wins.
//  1. a positive reorder quantity means ORDER that quantity;
//  2. high consumption with stock near the ceiling means INVESTIGATE;
//  3. anything else is MONITOR.
func Classify(rec StockRecord, reorderQty int, p Policy) Classification {
	if reorderQty > 0 {
		return Classification{
			Action:         ActionOrder,
			ActionQuantity: reorderQty,
			Justification: fmt.Sprintf("shortfall of %d units: target %.2f vs %d on hand + %d on order",
				reorderQty, rec.ConsumptionRate*p.ReorderMultiplier, rec.CurrentBalance, rec.PendingPurchases),
		}
	}

	ceiling := p.MaxThresholdFor(rec)
	if rec.ConsumptionRate > p.InvestigateConsumptionRate &&
		float64(rec.CurrentBalance) >= p.InvestigateCeilingRatio*ceiling {
		return Classification{
			Action: ActionInvestigate,
			Justification: fmt.Sprintf("high consumption (%.2f) with stock at %d of ceiling %.0f: check for over-ordering or misread demand",
				rec.ConsumptionRate, rec.CurrentBalance, ceiling),
		}
	}

	return Classification{
		Action:        ActionMonitor,
		Justification: "no purchase needed",
	}
}

// Rank orders records by consumption rate descending, then reorder quantity descending.
// Remaining ties keep input order.
func Rank(records []StockRecord, p Policy) []RankedRecord {
	ranked := make([]RankedRecord, len(records))
	for i, rec := range records {
		ranked[i] = RankedRecord{Record: rec, ReorderQuantity: ReorderQuantity(rec, p)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Record.ConsumptionRate != b.Record.ConsumptionRate {
			return a.Record.ConsumptionRate > b.Record.ConsumptionRate
		}
		return a.ReorderQuantity > b.ReorderQuantity
	})
	return ranked
}

// CriticalSet keeps the ranked entries that need a purchase, capped at limit when limit > 0.
func CriticalSet(ranked []RankedRecord, limit int) []RankedRecord {
	var critical []RankedRecord
	for _, r := range ranked {
		if r.ReorderQuantity <= 0 {
			continue
		}
		critical = append(critical, r)
		if limit > 0 && len(critical) == limit {
			break
		}
	}
	return critical
}

// BuildLocalPlan classifies already-ranked entries and assigns contiguous priority ranks.
func BuildLocalPlan(ranked []RankedRecord, p Policy) []ActionPlanItem {
	plan := make([]ActionPlanItem, 0, len(ranked))
	for i, r := range ranked {
		c := Classify(r.Record, r.ReorderQuantity, p)
		plan = append(plan, ActionPlanItem{
			Code:           r.Record.Code,
			Action:         c.Action,
			ActionQuantity: c.ActionQuantity,
			Justification:  c.Justification,
			PriorityRank:   i,
		})
	}
	return plan
}
