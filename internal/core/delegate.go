package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Reasoner is the external reasoning service: it receives a system instruction and a JSON
// payload and returns the raw text of its structured answer.
type Reasoner interface {
	Reason(ctx context.Context, instruction, payload string) (string, error)
}

// DelegateState is the lifecycle state of a Delegate.
type DelegateState string

const (
	DelegateUninitialized DelegateState = "UNINITIALIZED"
	DelegateReady         DelegateState = "READY"
	DelegateDisabled      DelegateState = "DISABLED"
)

// DelegateOutcome is the terminal state of one delegated call.
type DelegateOutcome string

const (
	OutcomeParsed   DelegateOutcome = "PARSED"
	OutcomeFailed   DelegateOutcome = "FAILED"
	OutcomeDisabled DelegateOutcome = "DISABLED"
	OutcomeSkipped  DelegateOutcome = "SKIPPED"
)

// DelegateResult is what one Plan call produced. Err is set for FAILED and DISABLED.
type DelegateResult struct {
	Items   []ActionPlanItem
	Outcome DelegateOutcome
	Err     error
	Raw     string
}

// DelegateConfig wires a Delegate. A nil Reasoner or a non-nil InitErr leaves the
// delegate DISABLED.
type DelegateConfig struct {
	Reasoner Reasoner
	InitErr  error
	Policy   Policy
	Timeout  time.Duration
	Logger   logrus.FieldLogger
	Observer Observer
}

// Delegate re-derives the acquisition plan through a Reasoner while keeping the local
// plan contract. It keeps no state between calls.
type Delegate struct {
	state    DelegateState
	cause    error
	reasoner Reasoner
	policy   Policy
	timeout  time.Duration
	log      logrus.FieldLogger
	observer Observer
}

const defaultDelegateTimeout = 30 * time.Second

// NewDelegate constructs a Delegate and moves it out of UNINITIALIZED.
func NewDelegate(cfg DelegateConfig) *Delegate {
	d := &Delegate{
		state:    DelegateUninitialized,
		reasoner: cfg.Reasoner,
		policy:   cfg.Policy,
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
		observer: cfg.Observer,
	}
	if d.timeout <= 0 {
		d.timeout = defaultDelegateTimeout
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if d.observer == nil {
		d.observer = NopObserver{}
	}

	switch {
	case cfg.InitErr != nil:
		d.state = DelegateDisabled
		d.cause = cfg.InitErr
	case cfg.Reasoner == nil:
		d.state = DelegateDisabled
		d.cause = &ConfigurationError{Setting: "reasoner", Reason: "no reasoning client configured"}
	default:
		d.state = DelegateReady
	}
	if d.state == DelegateDisabled {
		d.log.WithError(d.cause).Warn("reasoning delegate disabled")
	}
	return d
}

// placeholderDelegate is DISABLED like a delegate without a reasoner, but silent: a local
// planner never calls it, so there is nothing to warn about.
func placeholderDelegate(policy Policy, log logrus.FieldLogger, observer Observer) *Delegate {
	return &Delegate{
		state:    DelegateDisabled,
		cause:    &ConfigurationError{Setting: "reasoner", Reason: "local strategy"},
		policy:   policy,
		timeout:  defaultDelegateTimeout,
		log:      log,
		observer: observer,
	}
}

// State returns the lifecycle state.
func (d *Delegate) State() DelegateState { return d.state }

// Cause returns why the delegate is DISABLED, or nil.
func (d *Delegate) Cause() error { return d.cause }

// Plan sends the critical set to the reasoning service and validates the answer.
// It never panics and never substitutes the local plan.
func (d *Delegate) Plan(ctx context.Context, critical []RankedRecord) DelegateResult {
	if len(critical) == 0 {
		d.observer.DelegateOutcome(OutcomeSkipped, 0)
		return DelegateResult{Outcome: OutcomeSkipped}
	}
	if d.state != DelegateReady {
		d.observer.DelegateOutcome(OutcomeDisabled, 0)
		return DelegateResult{Outcome: OutcomeDisabled, Err: fmt.Errorf("%w: %v", ErrDelegateDisabled, d.cause)}
	}

	payload, requested, err := d.buildPayload(critical)
	if err != nil {
		return d.fail(err, "", 0)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	d.log.WithField("items", len(critical)).Info("sending critical set to reasoning service")
	raw, err := d.reasoner.Reason(ctx, Instruction(d.policy), payload)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("reasoning service timed out after %s: %w", d.timeout, err)
		}
		return d.fail(err, raw, elapsed)
	}

	items, err := ParsePlanPayload(raw, requested)
	if err != nil {
		return d.fail(err, raw, elapsed)
	}

	if len(items) < len(critical) {
		d.log.WithFields(logrus.Fields{"requested": len(critical), "returned": len(items)}).
			Warn("reasoning service omitted some critical items")
	}
	d.observer.DelegateOutcome(OutcomeParsed, elapsed)
	d.log.WithField("items", len(items)).Info("reasoning service plan parsed")
	return DelegateResult{Items: items, Outcome: OutcomeParsed, Raw: raw}
}

func (d *Delegate) fail(err error, raw string, elapsed time.Duration) DelegateResult {
	d.observer.DelegateOutcome(OutcomeFailed, elapsed)
	entry := d.log.WithError(err)
	if raw != "" {
		entry = entry.WithField("raw_payload", raw)
	}
	entry.Error("reasoning delegate call failed")
	return DelegateResult{Outcome: OutcomeFailed, Err: err, Raw: raw}
}

func (d *Delegate) buildPayload(critical []RankedRecord) (string, map[string]bool, error) {
	items := make([]delegateItem, 0, len(critical))
	requested := make(map[string]bool, len(critical))
	for _, r := range critical {
		items = append(items, delegateItem{
			Code:             r.Record.Code,
			ABC:              r.Record.ABC,
			CurrentStock:     r.Record.CurrentBalance,
			MaxStock:         d.policy.MaxThresholdFor(r.Record),
			ConsumptionRate:  r.Record.ConsumptionRate,
			PendingPurchases: r.Record.PendingPurchases,
			ReorderQuantity:  r.ReorderQuantity,
		})
		requested[r.Record.Code] = true
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal critical set: %w", err)
	}
	return fmt.Sprintf("CRITICAL ITEMS (JSON):\n%s\n\nProduce the action plan, listing items in priority order.", b), requested, nil
}

// Instruction renders the decision rule with the live policy constants, so the reasoning
// service applies exactly the rule the local classifier applies.
func Instruction(p Policy) string {
	return fmt.Sprintf(`You are the purchasing automation agent for an internal supply chain.
Your only output is an ACTION PLAN in JSON that matches the provided schema.

Decision rule (apply it exactly, first matching rule wins):
1. Priority: order the items by highest consumption_rate, then by highest reorder_quantity.
2. Action:
   * "ORDER" if reorder_quantity is greater than 0; action_quantity = reorder_quantity.
   * "INVESTIGATE" if consumption_rate is above %g AND current_stock is %g%% or more of max_stock; action_quantity = 0.
   * "MONITOR" in every other case; action_quantity = 0.

Output: an object {"items": [...]} where each element is
{"code": "<item code>", "action": "ORDER|INVESTIGATE|MONITOR", "action_quantity": <number>, "justification": "<short reason>"}.
Use only codes from the input. Do not invent items.`,
		p.InvestigateConsumptionRate, p.InvestigateCeilingRatio*100)
}
