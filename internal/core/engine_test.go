package core_test

import (
	"math"
	"testing"

	"supply-agent/internal/core"
)

func ptr(f float64) *float64 { return &f }

func TestReorderQuantity(t *testing.T) {
	p := core.DefaultPolicy()

	tests := []struct {
		name string
		rec  core.StockRecord
		want int
	}{
		{"empty shelf", core.StockRecord{Code: "X1", ConsumptionRate: 2.0}, 3},
		{"pending purchases cover need", core.StockRecord{Code: "A", ConsumptionRate: 4, PendingPurchases: 6}, 0},
		{"partial cover", core.StockRecord{Code: "B", ConsumptionRate: 10, CurrentBalance: 5, PendingPurchases: 3}, 7},
		{"rounds half away from zero", core.StockRecord{Code: "C", ConsumptionRate: 1.0}, 2},
		{"overstocked clamps to zero", core.StockRecord{Code: "D", ConsumptionRate: 1, CurrentBalance: 1000}, 0},
		{"zero consumption empty shelf", core.StockRecord{Code: "E"}, 0},
		{"zero consumption with stock", core.StockRecord{Code: "F", CurrentBalance: 40}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.ReorderQuantity(tt.rec, p); got != tt.want {
				t.Errorf("ReorderQuantity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReorderQuantity_NeverNegative(t *testing.T) {
	p := core.DefaultPolicy()
	for bal := 0; bal <= 50; bal += 5 {
		for pending := 0; pending <= 20; pending += 4 {
			for _, cmm := range []float64{0, 0.1, 0.8, 1.3, 7.5, 42} {
				rec := core.StockRecord{Code: "P", CurrentBalance: bal, PendingPurchases: pending, ConsumptionRate: cmm}
				q := core.ReorderQuantity(rec, p)
				if q < 0 {
					t.Fatalf("negative quantity %d for %+v", q, rec)
				}
				if cmm == 0 && q != 0 {
					t.Fatalf("zero consumption gave quantity %d for %+v", q, rec)
				}
			}
		}
	}
}

func TestReorderQuantity_HugeConsumptionIsClamped(t *testing.T) {
	p := core.DefaultPolicy()
	for _, cmm := range []float64{2e9, 1e19, 1e300, math.MaxFloat64, math.Inf(1)} {
		rec := core.StockRecord{Code: "BIG", CurrentBalance: 10, ConsumptionRate: cmm}
		q := core.ReorderQuantity(rec, p)
		if q != core.MaxReorderQuantity {
			t.Errorf("cmm %g: quantity = %d, want %d", cmm, q, core.MaxReorderQuantity)
		}
		c := core.Classify(rec, q, p)
		if c.Action != core.ActionOrder || c.ActionQuantity != q {
			t.Errorf("cmm %g: classified %+v, want ORDER", cmm, c)
		}
	}

	plan := core.BuildLocalPlan(core.CriticalSet(core.Rank([]core.StockRecord{{Code: "BIG", ConsumptionRate: 1e19}}, p), 0), p)
	if len(plan) != 1 || plan[0].Action != core.ActionOrder {
		t.Errorf("plan = %+v", plan)
	}
}

func TestReorderQuantity_ConfigurableMultiplier(t *testing.T) {
	p := core.DefaultPolicy()
	p.ReorderMultiplier = 2.0
	rec := core.StockRecord{Code: "M", ConsumptionRate: 5, CurrentBalance: 3}
	if got := core.ReorderQuantity(rec, p); got != 7 {
		t.Errorf("ReorderQuantity = %d, want 7", got)
	}
}

func TestClassify_Scenarios(t *testing.T) {
	p := core.DefaultPolicy()

	tests := []struct {
		name       string
		rec        core.StockRecord
		wantQty    int
		wantAction core.Action
	}{
		{
			name:       "A: empty shelf orders",
			rec:        core.StockRecord{Code: "X1", CurrentBalance: 0, ConsumptionRate: 2.0},
			wantQty:    3,
			wantAction: core.ActionOrder,
		},
		{
			name:       "B: near ceiling with high consumption investigates",
			rec:        core.StockRecord{Code: "X2", CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: ptr(100)},
			wantQty:    0,
			wantAction: core.ActionInvestigate,
		},
		{
			name:       "C: low consumption monitors",
			rec:        core.StockRecord{Code: "X3", CurrentBalance: 50, ConsumptionRate: 0.1, MaxThreshold: ptr(100)},
			wantQty:    0,
			wantAction: core.ActionMonitor,
		},
		{
			name:       "high consumption below ratio monitors",
			rec:        core.StockRecord{Code: "X4", CurrentBalance: 89, ConsumptionRate: 0.9, MaxThreshold: ptr(100)},
			wantAction: core.ActionMonitor,
		},
		{
			name:       "just above ratio investigates",
			rec:        core.StockRecord{Code: "X5", CurrentBalance: 91, ConsumptionRate: 0.81, MaxThreshold: ptr(100)},
			wantAction: core.ActionInvestigate,
		},
		{
			name:       "consumption exactly at threshold monitors",
			rec:        core.StockRecord{Code: "X6", CurrentBalance: 95, ConsumptionRate: 0.8, MaxThreshold: ptr(100)},
			wantAction: core.ActionMonitor,
		},
		{
			name:       "derived ceiling for high consumption",
			rec:        core.StockRecord{Code: "X7", CurrentBalance: 460, ConsumptionRate: 1.2},
			wantAction: core.ActionInvestigate,
		},
		{
			name:       "derived ceiling not reached",
			rec:        core.StockRecord{Code: "X8", CurrentBalance: 120, ConsumptionRate: 1.2},
			wantAction: core.ActionMonitor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty := core.ReorderQuantity(tt.rec, p)
			if qty != tt.wantQty {
				t.Fatalf("reorder quantity = %d, want %d", qty, tt.wantQty)
			}
			c := core.Classify(tt.rec, qty, p)
			if c.Action != tt.wantAction {
				t.Errorf("action = %s, want %s", c.Action, tt.wantAction)
			}
			if c.Action == core.ActionOrder && c.ActionQuantity != qty {
				t.Errorf("order quantity = %d, want %d", c.ActionQuantity, qty)
			}
			if c.Action != core.ActionOrder && c.ActionQuantity != 0 {
				t.Errorf("non-order quantity = %d, want 0", c.ActionQuantity)
			}
			if c.Justification == "" {
				t.Error("expected a justification")
			}
		})
	}
}

func TestClassify_OrderDominates(t *testing.T) {
	p := core.DefaultPolicy()
	// Would match INVESTIGATE on its own, but any positive reorder quantity wins.
	rec := core.StockRecord{Code: "D1", CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: ptr(100)}
	c := core.Classify(rec, 4, p)
	if c.Action != core.ActionOrder || c.ActionQuantity != 4 {
		t.Errorf("got %s/%d, want ORDER/4", c.Action, c.ActionQuantity)
	}
}

func TestClassify_ExhaustiveAndExclusive(t *testing.T) {
	p := core.DefaultPolicy()
	for bal := 0; bal <= 600; bal += 37 {
		for _, cmm := range []float64{0, 0.5, 0.8, 0.81, 1, 3, 250} {
			rec := core.StockRecord{Code: "E", CurrentBalance: bal, ConsumptionRate: cmm}
			qty := core.ReorderQuantity(rec, p)
			c := core.Classify(rec, qty, p)
			if !c.Action.Valid() {
				t.Fatalf("invalid action %q for %+v", c.Action, rec)
			}
			if qty > 0 && c.Action != core.ActionOrder {
				t.Fatalf("positive quantity classified %s for %+v", c.Action, rec)
			}
		}
	}
}

func TestClassify_PolicyOverride(t *testing.T) {
	p := core.DefaultPolicy()
	p.InvestigateConsumptionRate = 2.0
	rec := core.StockRecord{Code: "O", CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: ptr(100)}
	if c := core.Classify(rec, 0, p); c.Action != core.ActionMonitor {
		t.Errorf("action = %s, want MONITOR with raised threshold", c.Action)
	}
}

func TestRank_OrderAndStability(t *testing.T) {
	p := core.DefaultPolicy()
	records := []core.StockRecord{
		{Code: "low", ConsumptionRate: 0.5},
		{Code: "tie-small", ConsumptionRate: 4, CurrentBalance: 4},
		{Code: "tie-big", ConsumptionRate: 4},
		{Code: "top", ConsumptionRate: 9, CurrentBalance: 100},
		{Code: "tie-same-1", ConsumptionRate: 2, CurrentBalance: 50},
		{Code: "tie-same-2", ConsumptionRate: 2, CurrentBalance: 60},
	}

	want := []string{"top", "tie-big", "tie-small", "tie-same-1", "tie-same-2", "low"}
	first := core.Rank(records, p)
	for i, r := range first {
		if r.Record.Code != want[i] {
			t.Fatalf("position %d = %s, want %s", i, r.Record.Code, want[i])
		}
	}

	second := core.Rank(records, p)
	for i := range first {
		if first[i].Record.Code != second[i].Record.Code {
			t.Fatalf("ranking not reproducible at %d: %s vs %s", i, first[i].Record.Code, second[i].Record.Code)
		}
	}

	if records[0].Code != "low" {
		t.Error("Rank mutated its input")
	}
}

func TestCriticalSet(t *testing.T) {
	p := core.DefaultPolicy()
	records := []core.StockRecord{
		{Code: "a", ConsumptionRate: 10},
		{Code: "b", ConsumptionRate: 8, CurrentBalance: 100},
		{Code: "c", ConsumptionRate: 6},
		{Code: "d", ConsumptionRate: 4},
	}
	ranked := core.Rank(records, p)

	all := core.CriticalSet(ranked, 0)
	if len(all) != 3 {
		t.Fatalf("critical set size = %d, want 3", len(all))
	}
	for _, r := range all {
		if r.ReorderQuantity <= 0 {
			t.Errorf("non-critical %s in critical set", r.Record.Code)
		}
	}

	capped := core.CriticalSet(ranked, 2)
	if len(capped) != 2 || capped[0].Record.Code != "a" || capped[1].Record.Code != "c" {
		t.Errorf("capped set = %+v", capped)
	}
}

func TestBuildLocalPlan_Ranks(t *testing.T) {
	p := core.DefaultPolicy()
	records := []core.StockRecord{
		{Code: "m", ConsumptionRate: 0.1, CurrentBalance: 50},
		{Code: "o", ConsumptionRate: 3},
		{Code: "i", ConsumptionRate: 0.9, CurrentBalance: 95, MaxThreshold: ptr(100)},
	}
	plan := core.BuildLocalPlan(core.Rank(records, p), p)
	wantCodes := []string{"o", "i", "m"}
	wantActions := []core.Action{core.ActionOrder, core.ActionInvestigate, core.ActionMonitor}
	for i, item := range plan {
		if item.PriorityRank != i {
			t.Errorf("item %d rank = %d", i, item.PriorityRank)
		}
		if item.Code != wantCodes[i] || item.Action != wantActions[i] {
			t.Errorf("item %d = %s/%s, want %s/%s", i, item.Code, item.Action, wantCodes[i], wantActions[i])
		}
	}
}

func TestStockAlerts(t *testing.T) {
	p := core.DefaultPolicy()
	records := []core.StockRecord{
		{Code: "alert", ConsumptionRate: 1.5},
		{Code: "at-threshold", ConsumptionRate: 1.0},
		{Code: "has-stock", ConsumptionRate: 5, CurrentBalance: 1},
		// INVESTIGATE-shaped record is not an alert.
		{Code: "investigate", ConsumptionRate: 0.9, CurrentBalance: 95, MaxThreshold: ptr(100)},
	}
	alerts := core.StockAlerts(records, p)
	if len(alerts) != 1 || alerts[0].Code != "alert" {
		t.Errorf("alerts = %+v, want only 'alert'", alerts)
	}
}

func TestSuggest_FullList(t *testing.T) {
	p := core.DefaultPolicy()
	records := []core.StockRecord{
		{Code: "a", ConsumptionRate: 2},
		{Code: "b", ConsumptionRate: 0, CurrentBalance: 3},
	}
	s := core.Suggest(records, p)
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	if s[0].Code != "a" || s[0].ReorderQuantity != 3 {
		t.Errorf("first = %+v", s[0])
	}
	if s[1].ReorderQuantity != 0 || s[1].CurrentBalance != 3 {
		t.Errorf("second = %+v", s[1])
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := core.DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	bad := core.DefaultPolicy()
	bad.ReorderMultiplier = 0
	if bad.Validate() == nil {
		t.Error("expected error for zero multiplier")
	}
	bad = core.DefaultPolicy()
	bad.InvestigateCeilingRatio = 1.5
	if bad.Validate() == nil {
		t.Error("expected error for ratio above 1")
	}
}
