package app

import (
	"supply-agent/internal/core"
	"supply-agent/internal/ingest"
)

// HealthResult is returned by Health.
type HealthResult struct {
	Status        string             `json:"status"`
	Store         string             `json:"store"`
	Strategy      core.PlanStrategy  `json:"strategy"`
	DelegateState core.DelegateState `json:"delegate_state"`
	Database      bool               `json:"database"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.StockRecord `json:"products"`
}

// SuggestionsResult is returned by Suggestions.
type SuggestionsResult struct {
	Suggestions []core.ReorderSuggestion `json:"suggestions"`
}

// AlertsResult is returned by Alerts.
type AlertsResult struct {
	Alerts []core.StockRecord `json:"alerts"`
}

// ReviewResult is returned by StockReview.
type ReviewResult struct {
	Items []core.ActionPlanItem `json:"items"`
}

// CycleResult is one perceive, plan and execute pass.
type CycleResult struct {
	Records int                  `json:"records"`
	Plan    core.PlanResult      `json:"plan"`
	Report  core.ExecutionReport `json:"report"`
}

// ImportResult is returned by ImportCSV. Skipped holds one message per rejected row.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
}

// InsertScriptResult is returned by GenerateInserts.
type InsertScriptResult struct {
	Stats   ingest.ScriptStats `json:"stats"`
	Skipped []string           `json:"skipped"`
}

// UserSession is returned by AuthenticateUser on success.
type UserSession struct {
	UserID int       `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   core.Role `json:"role"`
}

// UserListResult is returned by ListUsers.
type UserListResult struct {
	Users []core.User `json:"users"`
}

// SaleListResult is returned by ListSales.
type SaleListResult struct {
	Sales []core.Sale `json:"sales"`
}
