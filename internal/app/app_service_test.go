package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
	"supply-agent/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newService(t *testing.T, records ...core.StockRecord) app.ApplicationService {
	t.Helper()
	log := quietLogger()
	backend := store.NewJSONStore(filepath.Join(t.TempDir(), "database.json"), log, nil)
	if len(records) > 0 {
		if err := backend.ReplaceRecords(context.Background(), records); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	p := core.DefaultPolicy()
	planner := core.NewPlanner(p, core.StrategyLocal, nil, log, nil)
	executor := core.NewExecutor(nil, log, nil)
	return app.NewAppService(backend, planner, executor, nil, nil, log)
}

func seed() []core.StockRecord {
	ceiling := 100.0
	return []core.StockRecord{
		{Code: "A1", ABC: core.ClassA, CurrentBalance: 0, ConsumptionRate: 2},
		{Code: "B1", ABC: core.ClassB, CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: &ceiling},
		{Code: "C1", ABC: core.ClassC, CurrentBalance: 50, ConsumptionRate: 0.1},
	}
}

func TestProducts_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.CreateProduct(ctx, core.StockRecord{Code: " P1 ", CurrentBalance: 3, ConsumptionRate: 1})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.Code != "P1" {
		t.Errorf("code = %q, want trimmed", created.Code)
	}

	if _, err := svc.CreateProduct(ctx, core.StockRecord{Code: "P1"}); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate create err = %v, want ErrConflict", err)
	}
	if _, err := svc.CreateProduct(ctx, core.StockRecord{Code: ""}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty code err = %v, want ErrInvalidInput", err)
	}

	if _, err := svc.UpsertProduct(ctx, "P1", core.StockRecord{CurrentBalance: 7}); err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	got, err := svc.GetProduct(ctx, "P1")
	if err != nil || got.CurrentBalance != 7 {
		t.Fatalf("GetProduct = %+v, %v", got, err)
	}
	if _, err := svc.UpsertProduct(ctx, "P1", core.StockRecord{Code: "P2"}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("mismatched code err = %v", err)
	}
	if _, err := svc.UpsertProduct(ctx, "P1", core.StockRecord{CurrentBalance: -1}); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("negative balance err = %v", err)
	}

	list, err := svc.ListProducts(ctx)
	if err != nil || len(list.Products) != 1 {
		t.Fatalf("ListProducts = %+v, %v", list, err)
	}

	if err := svc.DeleteProduct(ctx, "P1"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if err := svc.DeleteProduct(ctx, "P1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := svc.GetProduct(ctx, "P1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
}

func TestEngineOperations(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, seed()...)

	sug, err := svc.Suggestions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sug.Suggestions) != 3 || sug.Suggestions[0].ReorderQuantity != 3 {
		t.Errorf("suggestions = %+v", sug.Suggestions)
	}

	alerts, err := svc.Alerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts.Alerts) != 1 || alerts.Alerts[0].Code != "A1" {
		t.Errorf("alerts = %+v", alerts.Alerts)
	}

	plan, err := svc.AcquisitionPlan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Source != core.SourceLocal || len(plan.Items) != 1 || plan.Items[0].Action != core.ActionOrder {
		t.Errorf("plan = %+v", plan)
	}

	review, err := svc.StockReview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(review.Items) != 3 || review.Items[1].Action != core.ActionInvestigate {
		t.Errorf("review = %+v", review.Items)
	}

	report := svc.ExecutePlan(ctx, review.Items)
	if len(report.Orders) != 1 || len(report.Alerts) != 1 || len(report.Monitored) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunCycle(t *testing.T) {
	svc := newService(t, seed()...)
	res, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Records != 3 || res.Report.Highest == nil || res.Report.Highest.Code != "A1" {
		t.Errorf("cycle = %+v", res)
	}

	empty := newService(t)
	res, err = empty.RunCycle(context.Background())
	if err != nil || !res.Report.NothingToDo {
		t.Errorf("empty cycle = %+v, %v", res, err)
	}
}

const extract = `codigo;abc;saldo_manut;provid_compras;cmm
X1;A;0;0;3
X2;B;10;2;0,5
X3;Z;1;0;1
`

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, seed()...)

	res, err := svc.ImportCSV(ctx, strings.NewReader(extract))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.Imported != 2 || len(res.Skipped) != 1 {
		t.Errorf("result = %+v", res)
	}

	list, _ := svc.ListProducts(ctx)
	if len(list.Products) != 2 || list.Products[0].Code != "X1" {
		t.Errorf("store not replaced: %+v", list.Products)
	}

	if _, err := svc.ImportCSV(ctx, strings.NewReader("codigo;cmm\n")); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("bad header err = %v", err)
	}
}

func TestGenerateInserts(t *testing.T) {
	var buf bytes.Buffer
	res, err := newService(t).GenerateInserts(context.Background(), strings.NewReader(extract), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Rows != 2 || res.Stats.Batches != 1 || len(res.Skipped) != 1 {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(buf.String(), "INSERT INTO stock_records") {
		t.Error("no insert statement written")
	}
}

func TestAnalyze(t *testing.T) {
	s, err := newService(t, seed()...).Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 3 || s.Alerts != 1 || s.ZeroStock != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExportWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := newService(t, seed()...).ExportWorkbook(context.Background(), &buf); err != nil {
		t.Fatalf("ExportWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != app.SheetSuggestions {
		t.Errorf("sheets = %v", sheets)
	}

	rows, err := f.GetRows(app.SheetSuggestions)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[0][0] != "Code" || rows[1][0] != "A1" {
		t.Errorf("suggestion rows = %v", rows)
	}

	plan, err := f.GetRows(app.SheetPlan)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 2 || plan[1][2] != "ORDER" {
		t.Errorf("plan rows = %v", plan)
	}
}

func TestHealth(t *testing.T) {
	h := newService(t).Health(context.Background())
	if h.Store != "json" || h.Strategy != core.StrategyLocal || h.Database {
		t.Errorf("health = %+v", h)
	}
}

func TestUsersAndSales_RequireDatabase(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.AuthenticateUser(ctx, "a@b.co", "x"); !errors.Is(err, app.ErrNoDatabase) {
		t.Errorf("AuthenticateUser err = %v", err)
	}
	if _, err := svc.ListUsers(ctx); !errors.Is(err, app.ErrNoDatabase) {
		t.Errorf("ListUsers err = %v", err)
	}
	if err := svc.DeleteSale(ctx, 1); !errors.Is(err, app.ErrNoDatabase) {
		t.Errorf("DeleteSale err = %v", err)
	}
	if _, err := svc.ListSales(ctx); !errors.Is(err, app.ErrNoDatabase) {
		t.Errorf("ListSales err = %v", err)
	}
}
