package core

import "math"

// MaxReorderQuantity caps a single suggestion. Consumption rates are unbounded floats, so
// the need is clamped before it is converted to int.
const MaxReorderQuantity = math.MaxInt32

// ReorderQuantity returns how many units to buy so that on-hand plus on-order stock reaches
// ConsumptionRate × ReorderMultiplier. The result is rounded half away from zero, never
// negative and at most MaxReorderQuantity. A record with no consumption never needs a purchase.
func ReorderQuantity(rec StockRecord, p Policy) int {
	if rec.ConsumptionRate <= 0 {
		return 0
	}
	target := rec.ConsumptionRate * p.ReorderMultiplier
	need := target - float64(rec.CurrentBalance) - float64(rec.PendingPurchases)
	if math.IsNaN(need) || need <= 0 {
		return 0
	}
	if need >= MaxReorderQuantity {
		return MaxReorderQuantity
	}
	return int(math.Round(need))
}

// Suggest computes one suggestion per record, preserving input order.
func Suggest(records []StockRecord, p Policy) []ReorderSuggestion {
	out := make([]ReorderSuggestion, 0, len(records))
	for _, rec := range records {
		out = append(out, ReorderSuggestion{
			Code:            rec.Code,
			CurrentBalance:  rec.CurrentBalance,
			ConsumptionRate: rec.ConsumptionRate,
			ReorderQuantity: ReorderQuantity(rec, p),
		})
	}
	return out
}

// StockAlerts returns the records with nothing on hand and consumption above the alert rate.
// This is a separate, simpler rule from the INVESTIGATE classification.
func StockAlerts(records []StockRecord, p Policy) []StockRecord {
	var alerts []StockRecord
	for _, rec := range records {
		if rec.CurrentBalance == 0 && rec.ConsumptionRate > p.AlertConsumptionRate {
			alerts = append(alerts, rec)
		}
	}
	return alerts
}
