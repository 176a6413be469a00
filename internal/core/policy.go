package core

import (
	"errors"
	"fmt"
)

// Policy holds every business constant used by the suggestion engine, the classifier,
// the alert rule and the reasoning delegate's instruction text.
type Policy struct {
	// ReorderMultiplier scales consumption rate into the target stock level.
	ReorderMultiplier float64

	// INVESTIGATE fires when consumption is above InvestigateConsumptionRate and the
	// balance is at least InvestigateCeilingRatio of the ceiling.
	InvestigateConsumptionRate float64
	InvestigateCeilingRatio    float64

	// Ceiling buckets used when a record carries no max threshold.
	HighConsumptionRate    float64
	HighConsumptionCeiling float64
	DefaultCeiling         float64

	// AlertConsumptionRate is the stock-alert threshold for zero-balance records.
	AlertConsumptionRate float64

	// MaxCriticalItems caps the critical set after ranking. Zero means no cap.
	MaxCriticalItems int
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		ReorderMultiplier:          1.5,
		InvestigateConsumptionRate: 0.8,
		InvestigateCeilingRatio:    0.9,
		HighConsumptionRate:        0.8,
		HighConsumptionCeiling:     500,
		DefaultCeiling:             100,
		AlertConsumptionRate:       1.0,
	}
}

// Validate rejects policies that would make the rules meaningless.
func (p Policy) Validate() error {
	if p.ReorderMultiplier <= 0 {
		return fmt.Errorf("reorder multiplier must be > 0, got %v", p.ReorderMultiplier)
	}
	if p.InvestigateConsumptionRate < 0 {
		return fmt.Errorf("investigate consumption rate must be >= 0, got %v", p.InvestigateConsumptionRate)
	}
	if p.InvestigateCeilingRatio <= 0 || p.InvestigateCeilingRatio > 1 {
		return fmt.Errorf("investigate ceiling ratio must be in (0, 1], got %v", p.InvestigateCeilingRatio)
	}
	if p.HighConsumptionCeiling <= 0 || p.DefaultCeiling <= 0 {
		return errors.New("ceiling buckets must be > 0")
	}
	if p.AlertConsumptionRate < 0 {
		return fmt.Errorf("alert consumption rate must be >= 0, got %v", p.AlertConsumptionRate)
	}
	if p.MaxCriticalItems < 0 {
		return fmt.Errorf("max critical items must be >= 0, got %d", p.MaxCriticalItems)
	}
	return nil
}

// MaxThresholdFor returns the record's ceiling, deriving it from the consumption bucket
// when the record has none.
func (p Policy) MaxThresholdFor(rec StockRecord) float64 {
	if rec.MaxThreshold != nil && *rec.MaxThreshold > 0 {
		return *rec.MaxThreshold
	}
	if rec.ConsumptionRate > p.HighConsumptionRate {
		return p.HighConsumptionCeiling
	}
	return p.DefaultCeiling
}
