package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"supply-agent/internal/core"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// honestReasoner applies the same decision rule the local classifier does, reading only
// the payload it is sent.
type honestReasoner struct {
	policy      core.Policy
	gotPayload  string
	instruction string
}

type payloadItem struct {
	Code            string  `json:"code"`
	CurrentStock    int     `json:"current_stock"`
	MaxStock        float64 `json:"max_stock"`
	ConsumptionRate float64 `json:"consumption_rate"`
	ReorderQuantity int     `json:"reorder_quantity"`
}

func (h *honestReasoner) Reason(_ context.Context, instruction, payload string) (string, error) {
	h.gotPayload = payload
	h.instruction = instruction
	start := strings.Index(payload, "[")
	end := strings.LastIndex(payload, "]")
	if start < 0 || end < start {
		return "", errors.New("no json array in payload")
	}
	var items []payloadItem
	if err := json.Unmarshal([]byte(payload[start:end+1]), &items); err != nil {
		return "", err
	}

	env := core.PlanEnvelope{Items: []core.PlanItemWire{}}
	for _, it := range items {
		line := core.PlanItemWire{Code: it.Code, Justification: "rule applied"}
		switch {
		case it.ReorderQuantity > 0:
			line.Action = string(core.ActionOrder)
			line.ActionQuantity = float64(it.ReorderQuantity)
		case it.ConsumptionRate > h.policy.InvestigateConsumptionRate &&
			float64(it.CurrentStock) >= h.policy.InvestigateCeilingRatio*it.MaxStock:
			line.Action = string(core.ActionInvestigate)
		default:
			line.Action = string(core.ActionMonitor)
		}
		env.Items = append(env.Items, line)
	}
	b, err := json.Marshal(env)
	return string(b), err
}

type staticReasoner struct {
	raw   string
	err   error
	calls int
}

func (s *staticReasoner) Reason(context.Context, string, string) (string, error) {
	s.calls++
	return s.raw, s.err
}

type blockingReasoner struct{}

func (blockingReasoner) Reason(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []core.DelegateOutcome
	cycles   int
	actions  map[core.Action]int
	failures int
}

func (o *recordingObserver) PlanCycle(core.PlanStrategy, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles++
}

func (o *recordingObserver) DelegateOutcome(out core.DelegateOutcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *recordingObserver) ActionExecuted(a core.Action, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.actions == nil {
		o.actions = map[core.Action]int{}
	}
	o.actions[a]++
	if !ok {
		o.failures++
	}
}

func (o *recordingObserver) RecordSkipped(string) {}

func mixedRecords() []core.StockRecord {
	return []core.StockRecord{
		{Code: "X1", CurrentBalance: 0, ConsumptionRate: 2.0},
		{Code: "X2", CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: ptr(100)},
		{Code: "X3", CurrentBalance: 50, ConsumptionRate: 0.1, MaxThreshold: ptr(100)},
		{Code: "X4", CurrentBalance: 2, ConsumptionRate: 6, PendingPurchases: 1},
		{Code: "X5", CurrentBalance: 480, ConsumptionRate: 1.1},
	}
}

func TestDelegate_RoundTripMatchesLocalPlan(t *testing.T) {
	p := core.DefaultPolicy()
	ranked := core.Rank(mixedRecords(), p)
	local := core.BuildLocalPlan(ranked, p)

	reasoner := &honestReasoner{policy: p}
	d := core.NewDelegate(core.DelegateConfig{Reasoner: reasoner, Policy: p, Logger: quietLogger()})
	if d.State() != core.DelegateReady {
		t.Fatalf("state = %s, want READY", d.State())
	}

	res := d.Plan(context.Background(), ranked)
	if res.Outcome != core.OutcomeParsed {
		t.Fatalf("outcome = %s (%v), want PARSED", res.Outcome, res.Err)
	}
	if len(res.Items) != len(local) {
		t.Fatalf("delegate returned %d items, local %d", len(res.Items), len(local))
	}
	for i := range local {
		got, want := res.Items[i], local[i]
		if got.Code != want.Code || got.Action != want.Action || got.ActionQuantity != want.ActionQuantity {
			t.Errorf("item %d: delegate %s/%s/%d, local %s/%s/%d",
				i, got.Code, got.Action, got.ActionQuantity, want.Code, want.Action, want.ActionQuantity)
		}
		if got.PriorityRank != i {
			t.Errorf("item %d rank = %d", i, got.PriorityRank)
		}
	}

	if !strings.Contains(reasoner.instruction, "0.8") || !strings.Contains(reasoner.instruction, "90%") {
		t.Errorf("instruction does not carry live policy constants:\n%s", reasoner.instruction)
	}
	if !strings.Contains(reasoner.gotPayload, `"max_stock": 100`) {
		t.Errorf("payload missing max_stock:\n%s", reasoner.gotPayload)
	}
}

func TestDelegate_InstructionTracksPolicy(t *testing.T) {
	p := core.DefaultPolicy()
	p.InvestigateConsumptionRate = 1.25
	p.InvestigateCeilingRatio = 0.75
	text := core.Instruction(p)
	if !strings.Contains(text, "1.25") || !strings.Contains(text, "75%") {
		t.Errorf("instruction not rendered from policy:\n%s", text)
	}
}

func TestDelegate_MalformedResponseFails(t *testing.T) {
	p := core.DefaultPolicy()
	obs := &recordingObserver{}
	raw := `{"items": [ {"code": "X1", "action": "ORDER"`
	d := core.NewDelegate(core.DelegateConfig{
		Reasoner: &staticReasoner{raw: raw},
		Policy:   p,
		Logger:   quietLogger(),
		Observer: obs,
	})

	critical := core.CriticalSet(core.Rank(mixedRecords(), p), 0)
	res := d.Plan(context.Background(), critical)
	if res.Outcome != core.OutcomeFailed {
		t.Fatalf("outcome = %s, want FAILED", res.Outcome)
	}
	if len(res.Items) != 0 {
		t.Errorf("failed call returned items: %+v", res.Items)
	}
	if res.Raw != raw {
		t.Errorf("raw payload not kept: %q", res.Raw)
	}
	var verr *core.ValidationError
	if !errors.As(res.Err, &verr) {
		t.Errorf("err = %T, want *ValidationError", res.Err)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != core.OutcomeFailed {
		t.Errorf("observer outcomes = %v", obs.outcomes)
	}
}

func TestDelegate_TransportError(t *testing.T) {
	p := core.DefaultPolicy()
	d := core.NewDelegate(core.DelegateConfig{
		Reasoner: &staticReasoner{err: fmt.Errorf("connection refused")},
		Policy:   p,
		Logger:   quietLogger(),
	})
	res := d.Plan(context.Background(), core.CriticalSet(core.Rank(mixedRecords(), p), 0))
	if res.Outcome != core.OutcomeFailed || res.Err == nil {
		t.Fatalf("outcome = %s err = %v, want FAILED with error", res.Outcome, res.Err)
	}
}

func TestDelegate_Timeout(t *testing.T) {
	p := core.DefaultPolicy()
	d := core.NewDelegate(core.DelegateConfig{
		Reasoner: blockingReasoner{},
		Policy:   p,
		Timeout:  20 * time.Millisecond,
		Logger:   quietLogger(),
	})
	res := d.Plan(context.Background(), core.CriticalSet(core.Rank(mixedRecords(), p), 0))
	if res.Outcome != core.OutcomeFailed {
		t.Fatalf("outcome = %s, want FAILED", res.Outcome)
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", res.Err)
	}
	if !strings.Contains(res.Err.Error(), "timed out") {
		t.Errorf("err = %v, want timeout message", res.Err)
	}
}

func TestDelegate_Disabled(t *testing.T) {
	p := core.DefaultPolicy()
	reasoner := &staticReasoner{raw: `{"items":[]}`}

	tests := []struct {
		name string
		cfg  core.DelegateConfig
	}{
		{"no reasoner", core.DelegateConfig{Policy: p, Logger: quietLogger()}},
		{"init error", core.DelegateConfig{
			Reasoner: reasoner,
			InitErr:  &core.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "not set"},
			Policy:   p,
			Logger:   quietLogger(),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := core.NewDelegate(tt.cfg)
			if d.State() != core.DelegateDisabled {
				t.Fatalf("state = %s, want DISABLED", d.State())
			}
			var cerr *core.ConfigurationError
			if !errors.As(d.Cause(), &cerr) {
				t.Errorf("cause = %T, want *ConfigurationError", d.Cause())
			}
			res := d.Plan(context.Background(), core.CriticalSet(core.Rank(mixedRecords(), p), 0))
			if res.Outcome != core.OutcomeDisabled {
				t.Errorf("outcome = %s, want DISABLED", res.Outcome)
			}
			if !errors.Is(res.Err, core.ErrDelegateDisabled) {
				t.Errorf("err = %v, want ErrDelegateDisabled", res.Err)
			}
		})
	}
	if reasoner.calls != 0 {
		t.Errorf("disabled delegate called the reasoner %d times", reasoner.calls)
	}
}

func TestDelegate_EmptyCriticalSetSkips(t *testing.T) {
	reasoner := &staticReasoner{raw: `{"items":[]}`}
	d := core.NewDelegate(core.DelegateConfig{Reasoner: reasoner, Policy: core.DefaultPolicy(), Logger: quietLogger()})
	res := d.Plan(context.Background(), nil)
	if res.Outcome != core.OutcomeSkipped {
		t.Errorf("outcome = %s, want SKIPPED", res.Outcome)
	}
	if reasoner.calls != 0 {
		t.Errorf("reasoner called for empty set")
	}
}

func TestDelegate_DisabledWithEmptySetSkips(t *testing.T) {
	d := core.NewDelegate(core.DelegateConfig{Policy: core.DefaultPolicy(), Logger: quietLogger()})
	res := d.Plan(context.Background(), []core.RankedRecord{})
	if res.Outcome != core.OutcomeSkipped || res.Err != nil {
		t.Errorf("result = %+v, want SKIPPED without error", res)
	}
}

func TestDelegate_PartialAnswerIsAccepted(t *testing.T) {
	p := core.DefaultPolicy()
	raw := `{"items":[{"code":"X4","action":"ORDER","action_quantity":7,"justification":"burning fast"}]}`
	d := core.NewDelegate(core.DelegateConfig{Reasoner: &staticReasoner{raw: raw}, Policy: p, Logger: quietLogger()})
	res := d.Plan(context.Background(), core.CriticalSet(core.Rank(mixedRecords(), p), 0))
	if res.Outcome != core.OutcomeParsed {
		t.Fatalf("outcome = %s (%v)", res.Outcome, res.Err)
	}
	if len(res.Items) != 1 || res.Items[0].Code != "X4" || res.Items[0].ActionQuantity != 7 {
		t.Errorf("items = %+v", res.Items)
	}
}
