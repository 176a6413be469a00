package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"supply-agent/internal/config"
	"supply-agent/internal/core"
	"supply-agent/internal/ingest"
	"supply-agent/internal/store"
)

type appService struct {
	store    store.Backend
	planner  *core.Planner
	executor *core.Executor
	users    core.UserService
	sales    core.SaleService
	log      logrus.FieldLogger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// users and sales may be nil when no database is configured; their operations then
// return ErrNoDatabase.
func NewAppService(
	backend store.Backend,
	planner *core.Planner,
	executor *core.Executor,
	users core.UserService,
	sales core.SaleService,
	log logrus.FieldLogger,
) ApplicationService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &appService{
		store:    backend,
		planner:  planner,
		executor: executor,
		users:    users,
		sales:    sales,
		log:      log.WithField("module", "app"),
	}
}

func (s *appService) Health(_ context.Context) *HealthResult {
	backend := config.StoreJSON
	if _, ok := s.store.(*store.PGStore); ok {
		backend = config.StorePostgres
	}
	return &HealthResult{
		Status:        "ok",
		Store:         backend,
		Strategy:      s.planner.Strategy(),
		DelegateState: s.planner.DelegateState(),
		Database:      s.users != nil,
	}
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: records}, nil
}

func (s *appService) GetProduct(ctx context.Context, code string) (*core.StockRecord, error) {
	rec, found, err := s.store.GetRecord(ctx, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	return &rec, nil
}

func (s *appService) CreateProduct(ctx context.Context, rec core.StockRecord) (*core.StockRecord, error) {
	rec.Code = strings.TrimSpace(rec.Code)
	if rec.Code == "" {
		return nil, fmt.Errorf("%w: product code is required", core.ErrInvalidInput)
	}
	_, found, err := s.store.GetRecord(ctx, rec.Code)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("product %s %w", rec.Code, core.ErrConflict)
	}
	if err := s.store.UpsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	s.log.WithField("code", rec.Code).Info("product created")
	return &rec, nil
}

// UpsertProduct takes the code from the path; a body code that disagrees is rejected.
func (s *appService) UpsertProduct(ctx context.Context, code string, rec core.StockRecord) (*core.StockRecord, error) {
	code = strings.TrimSpace(code)
	if rec.Code != "" && rec.Code != code {
		return nil, fmt.Errorf("%w: body code %q does not match %q", core.ErrInvalidInput, rec.Code, code)
	}
	rec.Code = code
	if err := s.store.UpsertRecord(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *appService) DeleteProduct(ctx context.Context, code string) error {
	existed, err := s.store.DeleteRecord(ctx, code)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("product %s: %w", code, core.ErrNotFound)
	}
	s.log.WithField("code", code).Info("product deleted")
	return nil
}

// ── Engine ────────────────────────────────────────────────────────────────────

func (s *appService) Suggestions(ctx context.Context) (*SuggestionsResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &SuggestionsResult{Suggestions: core.Suggest(records, s.planner.Policy())}, nil
}

func (s *appService) Alerts(ctx context.Context) (*AlertsResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	alerts := core.StockAlerts(records, s.planner.Policy())
	if alerts == nil {
		alerts = []core.StockRecord{}
	}
	return &AlertsResult{Alerts: alerts}, nil
}

func (s *appService) AcquisitionPlan(ctx context.Context) (*core.PlanResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	result := s.planner.AcquisitionPlan(ctx, records)
	return &result, nil
}

func (s *appService) StockReview(ctx context.Context) (*ReviewResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Items: s.planner.StockReview(records)}, nil
}

func (s *appService) ExecutePlan(ctx context.Context, items []core.ActionPlanItem) *core.ExecutionReport {
	report := s.executor.Execute(ctx, items)
	return &report
}

func (s *appService) RunCycle(ctx context.Context) (*CycleResult, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("perceive: %w", err)
	}
	plan := s.planner.AcquisitionPlan(ctx, records)
	report := s.executor.Execute(ctx, plan.Items)
	s.log.WithFields(logrus.Fields{
		"cycle_id": plan.CycleID,
		"records":  len(records),
		"orders":   len(report.Orders),
		"alerts":   len(report.Alerts),
		"failed":   report.Failed,
	}).Info("agent cycle complete")
	return &CycleResult{Records: len(records), Plan: plan, Report: report}, nil
}

// ── Ingestion ─────────────────────────────────────────────────────────────────

func (s *appService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	loaded, err := ingest.LoadStockCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if len(loaded.Records) == 0 {
		return nil, fmt.Errorf("%w: extract has no valid rows", core.ErrInvalidInput)
	}
	if err := s.store.ReplaceRecords(ctx, loaded.Records); err != nil {
		config.LogError(s.log, "app", "ImportCSV", "replace records", len(loaded.Records), err)
		return nil, err
	}
	res := &ImportResult{Imported: len(loaded.Records), Skipped: messages(loaded.Skipped)}
	s.log.WithFields(logrus.Fields{"imported": res.Imported, "skipped": len(res.Skipped)}).Info("stock extract imported")
	return res, nil
}

func (s *appService) GenerateInserts(_ context.Context, r io.Reader, w io.Writer) (*InsertScriptResult, error) {
	loaded, err := ingest.LoadStockCSV(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	stats, err := ingest.WriteInsertScript(w, loaded.Records, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to write insert script: %w", err)
	}
	return &InsertScriptResult{Stats: stats, Skipped: messages(loaded.Skipped)}, nil
}

func (s *appService) Analyze(ctx context.Context) (*ingest.Summary, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	summary := ingest.Summarize(records, s.planner.Policy())
	return &summary, nil
}

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error) {
	if s.users == nil {
		return nil, ErrNoDatabase
	}
	u, err := s.users.Create(ctx, req.toNewUser())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user created")
	return u, nil
}

func (s *appService) AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error) {
	if s.users == nil {
		return nil, ErrNoDatabase
	}
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		s.log.WithField("email", strings.ToLower(strings.TrimSpace(email))).WithError(err).Warn("login rejected")
		return nil, err
	}
	return &UserSession{
		UserID: u.ID,
		Email:  u.Email,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Role:   u.Role,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*core.User, error) {
	if s.users == nil {
		return nil, ErrNoDatabase
	}
	return s.users.GetByID(ctx, userID)
}

func (s *appService) ListUsers(ctx context.Context) (*UserListResult, error) {
	if s.users == nil {
		return nil, ErrNoDatabase
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return &UserListResult{Users: users}, nil
}

func (s *appService) DeleteUser(ctx context.Context, userID int) error {
	if s.users == nil {
		return ErrNoDatabase
	}
	return s.users.Delete(ctx, userID)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) ListSales(ctx context.Context) (*SaleListResult, error) {
	if s.sales == nil {
		return nil, ErrNoDatabase
	}
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales}, nil
}

func (s *appService) GetSale(ctx context.Context, id int) (*core.Sale, error) {
	if s.sales == nil {
		return nil, ErrNoDatabase
	}
	return s.sales.Get(ctx, id)
}

func (s *appService) CreateSale(ctx context.Context, in core.SaleInput) (*core.Sale, error) {
	if s.sales == nil {
		return nil, ErrNoDatabase
	}
	return s.sales.Create(ctx, in)
}

func (s *appService) UpdateSale(ctx context.Context, id int, in core.SaleInput) (*core.Sale, error) {
	if s.sales == nil {
		return nil, ErrNoDatabase
	}
	return s.sales.Update(ctx, id, in)
}

func (s *appService) DeleteSale(ctx context.Context, id int) error {
	if s.sales == nil {
		return ErrNoDatabase
	}
	return s.sales.Delete(ctx, id)
}
