package repl_test

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"supply-agent/internal/adapters/repl"
	"supply-agent/internal/app"
	"supply-agent/internal/core"
	"supply-agent/internal/store"
)

func newService(t *testing.T) app.ApplicationService {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	backend := store.NewJSONStore(filepath.Join(t.TempDir(), "database.json"), log, nil)
	planner := core.NewPlanner(core.DefaultPolicy(), core.StrategyLocal, nil, log, nil)
	return app.NewAppService(backend, planner, core.NewExecutor(nil, log, nil), nil, nil, log)
}

func run(t *testing.T, svc app.ApplicationService, script string) string {
	t.Helper()
	var out bytes.Buffer
	repl.Run(context.Background(), svc, bufio.NewReader(strings.NewReader(script)), &out)
	return out.String()
}

func TestREPL_NewProductAndPlan(t *testing.T) {
	svc := newService(t)
	script := strings.Join([]string{
		"/new-product",
		"HOT-1", "a", "0", "0", "0", "2", "",
		"/products",
		"/plan",
		"y",
		"/exit",
	}, "\n") + "\n"

	out := run(t, svc, script)
	for _, want := range []string{
		"Product HOT-1 created.",
		"STOCK RECORDS (1)",
		"ACQUISITION PLAN (strategy local, source local)",
		"Highest priority: HOT-1 (ORDER)",
		"Orders: 1",
		"Goodbye!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	rec, err := svc.GetProduct(context.Background(), "HOT-1")
	if err != nil || rec.ABC != core.ClassA || rec.ConsumptionRate != 2 {
		t.Errorf("stored = %+v, %v", rec, err)
	}
}

func TestREPL_DeclineAndErrors(t *testing.T) {
	svc := newService(t)
	if _, err := svc.CreateProduct(context.Background(), core.StockRecord{Code: "X", ConsumptionRate: 4}); err != nil {
		t.Fatal(err)
	}

	out := run(t, svc, "/plan\nn\n/product NOPE\n/bogus\nhello\n/delete X\nno\n")
	for _, want := range []string{
		"Plan not executed.",
		"Error: product NOPE: not found",
		"Unknown command: /bogus",
		"Commands start with /.",
		"Cancelled.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if _, err := svc.GetProduct(context.Background(), "X"); err != nil {
		t.Errorf("declined delete removed the record: %v", err)
	}
}

func TestREPL_CancelWizard(t *testing.T) {
	svc := newService(t)
	out := run(t, svc, "/new-product\nP\ncancel\n/products\n")
	if !strings.Contains(out, "Cancelled.") || !strings.Contains(out, "No products found.") {
		t.Errorf("output:\n%s", out)
	}
}
