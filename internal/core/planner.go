package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlanStrategy selects, once at startup, which path produces the acquisition plan.
type PlanStrategy string

const (
	// StrategyLocal ranks and classifies in-process.
	StrategyLocal PlanStrategy = "local"
	// StrategyDelegate asks the reasoning service; a failed call yields an empty plan.
	StrategyDelegate PlanStrategy = "delegate"
	// StrategyDelegateWithFallback asks the reasoning service and returns the local plan
	// when the call fails or the delegate is disabled.
	StrategyDelegateWithFallback PlanStrategy = "delegate_with_fallback"
)

// ParsePlanStrategy maps a configuration value to a strategy.
func ParsePlanStrategy(s string) (PlanStrategy, error) {
	switch PlanStrategy(s) {
	case "", StrategyLocal:
		return StrategyLocal, nil
	case StrategyDelegate, StrategyDelegateWithFallback:
		return PlanStrategy(s), nil
	}
	return "", fmt.Errorf("unknown plan strategy %q (want local, delegate or delegate_with_fallback)", s)
}

// PlanSource names which path produced a plan.
type PlanSource string

const (
	SourceLocal    PlanSource = "local"
	SourceDelegate PlanSource = "delegate"
)

// PlanResult is one plan-generation cycle's output.
type PlanResult struct {
	CycleID  string           `json:"cycle_id"`
	Strategy PlanStrategy     `json:"strategy"`
	Source   PlanSource       `json:"source"`
	Outcome  DelegateOutcome  `json:"delegate_outcome,omitempty"`
	FellBack bool             `json:"fell_back,omitempty"`
	Error    string           `json:"error,omitempty"`
	Items    []ActionPlanItem `json:"items"`
}

// Planner runs plan-generation cycles over a snapshot of stock records.
type Planner struct {
	policy   Policy
	strategy PlanStrategy
	delegate *Delegate
	log      logrus.FieldLogger
	observer Observer
}

// NewPlanner builds a Planner. delegate may be nil for StrategyLocal.
func NewPlanner(policy Policy, strategy PlanStrategy, delegate *Delegate, log logrus.FieldLogger, observer Observer) *Planner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	switch {
	case delegate != nil:
	case strategy == StrategyLocal:
		delegate = placeholderDelegate(policy, log, observer)
	default:
		delegate = NewDelegate(DelegateConfig{Policy: policy, Logger: log, Observer: observer})
	}
	return &Planner{policy: policy, strategy: strategy, delegate: delegate, log: log, observer: observer}
}

// Strategy returns the configured strategy.
func (p *Planner) Strategy() PlanStrategy { return p.strategy }

// Policy returns the policy the planner applies.
func (p *Planner) Policy() Policy { return p.policy }

// DelegateState exposes the delegate lifecycle state for health reporting.
func (p *Planner) DelegateState() DelegateState { return p.delegate.State() }

// AcquisitionPlan ranks the records, keeps the critical set and classifies it with the
// configured strategy.
func (p *Planner) AcquisitionPlan(ctx context.Context, records []StockRecord) PlanResult {
	cycleID := uuid.NewString()
	log := p.log.WithFields(logrus.Fields{"cycle_id": cycleID, "strategy": p.strategy})

	critical := CriticalSet(Rank(records, p.policy), p.policy.MaxCriticalItems)
	result := PlanResult{CycleID: cycleID, Strategy: p.strategy, Source: SourceLocal, Items: []ActionPlanItem{}}

	switch p.strategy {
	case StrategyDelegate, StrategyDelegateWithFallback:
		dr := p.delegate.Plan(ctx, critical)
		result.Outcome = dr.Outcome
		result.Source = SourceDelegate
		switch dr.Outcome {
		case OutcomeParsed:
			result.Items = dr.Items
		case OutcomeSkipped:
		default:
			result.Error = dr.Err.Error()
			if p.strategy == StrategyDelegateWithFallback {
				log.WithError(dr.Err).Warn("delegate unavailable, using local plan")
				result.FellBack = true
				result.Source = SourceLocal
				result.Items = BuildLocalPlan(critical, p.policy)
			}
		}
	default:
		result.Items = BuildLocalPlan(critical, p.policy)
	}

	p.observer.PlanCycle(p.strategy, len(result.Items))
	log.WithFields(logrus.Fields{
		"critical": len(critical),
		"items":    len(result.Items),
		"source":   result.Source,
	}).Info("acquisition plan generated")
	return result
}

// StockReview classifies every record, ranked, with the local rule. This is where
// INVESTIGATE and MONITOR lines show up.
func (p *Planner) StockReview(records []StockRecord) []ActionPlanItem {
	return BuildLocalPlan(Rank(records, p.policy), p.policy)
}
