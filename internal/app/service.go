package app

import (
	"context"
	"errors"
	"io"

	"supply-agent/internal/core"
	"supply-agent/internal/ingest"
)

// ErrNoDatabase is returned by account and sales operations when the process runs
// without a Postgres pool.
var ErrNoDatabase = errors.New("database not configured")

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Health reports the store backend, plan strategy and reasoning delegate state.
	Health(ctx context.Context) *HealthResult

	// ListProducts returns every valid stock record.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// GetProduct returns one stock record by code, or core.ErrNotFound.
	GetProduct(ctx context.Context, code string) (*core.StockRecord, error)

	// CreateProduct stores a new record. An existing code yields core.ErrConflict.
	CreateProduct(ctx context.Context, rec core.StockRecord) (*core.StockRecord, error)

	// UpsertProduct inserts or replaces the record keyed by code.
	UpsertProduct(ctx context.Context, code string, rec core.StockRecord) (*core.StockRecord, error)

	// DeleteProduct removes a record, or returns core.ErrNotFound.
	DeleteProduct(ctx context.Context, code string) error

	// Suggestions returns the reorder quantity for every record.
	Suggestions(ctx context.Context) (*SuggestionsResult, error)

	// Alerts returns the out-of-stock, fast-moving records.
	Alerts(ctx context.Context) (*AlertsResult, error)

	// AcquisitionPlan runs one plan cycle with the configured strategy.
	AcquisitionPlan(ctx context.Context) (*core.PlanResult, error)

	// StockReview classifies every record with the local rule.
	StockReview(ctx context.Context) (*ReviewResult, error)

	// ExecutePlan dispatches plan lines to the action handler.
	ExecutePlan(ctx context.Context, items []core.ActionPlanItem) *core.ExecutionReport

	// RunCycle perceives the store, builds the acquisition plan and executes it.
	RunCycle(ctx context.Context) (*CycleResult, error)

	// ImportCSV loads a semicolon-delimited stock extract and replaces the store contents.
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)

	// GenerateInserts converts a stock extract into a batched SQL load script.
	GenerateInserts(ctx context.Context, r io.Reader, w io.Writer) (*InsertScriptResult, error)

	// Analyze summarizes the current store contents.
	Analyze(ctx context.Context) (*ingest.Summary, error)

	// ExportWorkbook writes suggestions, alerts and the acquisition plan as an .xlsx workbook.
	ExportWorkbook(ctx context.Context, w io.Writer) error

	// CreateUser validates and stores a new account.
	CreateUser(ctx context.Context, req CreateUserRequest) (*core.User, error)

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, email, password string) (*UserSession, error)

	// GetUser returns a user profile by ID.
	GetUser(ctx context.Context, userID int) (*core.User, error)

	// ListUsers returns every account.
	ListUsers(ctx context.Context) (*UserListResult, error)

	// DeleteUser removes an account.
	DeleteUser(ctx context.Context, userID int) error

	ListSales(ctx context.Context) (*SaleListResult, error)
	GetSale(ctx context.Context, id int) (*core.Sale, error)
	CreateSale(ctx context.Context, in core.SaleInput) (*core.Sale, error)
	UpdateSale(ctx context.Context, id int, in core.SaleInput) (*core.Sale, error)
	DeleteSale(ctx context.Context, id int) error
}
