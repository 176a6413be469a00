package core

import "time"

// Observer receives engine events for metrics. Implementations must be safe for
// concurrent use.
type Observer interface {
	PlanCycle(strategy PlanStrategy, items int)
	DelegateOutcome(outcome DelegateOutcome, latency time.Duration)
	ActionExecuted(action Action, ok bool)
	RecordSkipped(reason string)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) PlanCycle(PlanStrategy, int)                   {}
func (NopObserver) DelegateOutcome(DelegateOutcome, time.Duration) {}
func (NopObserver) ActionExecuted(Action, bool)                   {}
func (NopObserver) RecordSkipped(string)                          {}
