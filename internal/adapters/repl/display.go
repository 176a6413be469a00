package repl

import (
	"fmt"
	"io"
	"strings"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
)

func rule(w io.Writer, ch string, n int) {
	fmt.Fprintln(w, strings.Repeat(ch, n))
}

func printProducts(w io.Writer, result *app.ProductListResult) {
	fmt.Fprintln(w)
	rule(w, "=", 72)
	fmt.Fprintf(w, "  STOCK RECORDS (%d)\n", len(result.Products))
	rule(w, "=", 72)
	if len(result.Products) == 0 {
		fmt.Fprintln(w, "  No products found.")
		rule(w, "=", 72)
		return
	}
	fmt.Fprintf(w, "  %-14s %-3s %10s %10s %10s %12s\n", "CODE", "ABC", "BALANCE", "PENDING", "EXPECTED", "CONSUMPTION")
	rule(w, "-", 72)
	for _, p := range result.Products {
		fmt.Fprintf(w, "  %-14s %-3s %10d %10d %10d %12.2f\n",
			p.Code, p.ABC, p.CurrentBalance, p.PendingPurchases, p.ExpectedReceipt, p.ConsumptionRate)
	}
	rule(w, "=", 72)
}

func printProduct(w io.Writer, p *core.StockRecord) {
	fmt.Fprintf(w, "\nCODE:         %s\n", p.Code)
	fmt.Fprintf(w, "ABC:          %s\n", p.ABC)
	fmt.Fprintf(w, "BALANCE:      %d\n", p.CurrentBalance)
	fmt.Fprintf(w, "PENDING:      %d\n", p.PendingPurchases)
	fmt.Fprintf(w, "EXPECTED:     %d\n", p.ExpectedReceipt)
	fmt.Fprintf(w, "CONSUMPTION:  %.2f\n", p.ConsumptionRate)
	if p.MaxThreshold != nil {
		fmt.Fprintf(w, "MAX:          %.0f\n", *p.MaxThreshold)
	}
	fmt.Fprintf(w, "LOSS COEF:    %.4f\n", p.LossCoefficient)
}

func printSuggestions(w io.Writer, result *app.SuggestionsResult) {
	fmt.Fprintln(w)
	rule(w, "=", 62)
	fmt.Fprintln(w, "  REORDER SUGGESTIONS")
	rule(w, "=", 62)
	fmt.Fprintf(w, "  %-14s %10s %12s %12s\n", "CODE", "BALANCE", "CONSUMPTION", "REORDER")
	rule(w, "-", 62)
	n := 0
	for _, s := range result.Suggestions {
		if s.ReorderQuantity == 0 {
			continue
		}
		n++
		fmt.Fprintf(w, "  %-14s %10d %12.2f %12d\n", s.Code, s.CurrentBalance, s.ConsumptionRate, s.ReorderQuantity)
	}
	if n == 0 {
		fmt.Fprintln(w, "  Nothing to reorder.")
	}
	rule(w, "=", 62)
	fmt.Fprintf(w, "  %d of %d products need a purchase\n", n, len(result.Suggestions))
}

func printAlerts(w io.Writer, result *app.AlertsResult) {
	fmt.Fprintln(w)
	if len(result.Alerts) == 0 {
		fmt.Fprintln(w, "No stock alerts.")
		return
	}
	fmt.Fprintf(w, "STOCK ALERTS (%d): no stock and high consumption\n", len(result.Alerts))
	for _, rec := range result.Alerts {
		fmt.Fprintf(w, "  %-14s consumption %.2f, pending %d\n", rec.Code, rec.ConsumptionRate, rec.PendingPurchases)
	}
}

func printPlan(w io.Writer, title string, items []core.ActionPlanItem) {
	fmt.Fprintln(w)
	rule(w, "=", 78)
	fmt.Fprintf(w, "  %s\n", title)
	rule(w, "=", 78)
	if len(items) == 0 {
		fmt.Fprintln(w, "  No actions.")
		rule(w, "=", 78)
		return
	}
	fmt.Fprintf(w, "  %4s %-14s %-12s %8s  %s\n", "RANK", "CODE", "ACTION", "QTY", "JUSTIFICATION")
	rule(w, "-", 78)
	for _, it := range items {
		fmt.Fprintf(w, "  %4d %-14s %-12s %8d  %s\n", it.PriorityRank, it.Code, it.Action, it.ActionQuantity, it.Justification)
	}
	rule(w, "=", 78)
}

func printPlanResult(w io.Writer, res *core.PlanResult) {
	title := fmt.Sprintf("ACQUISITION PLAN (strategy %s, source %s)", res.Strategy, res.Source)
	printPlan(w, title, res.Items)
	if res.Error != "" {
		fmt.Fprintf(w, "Delegate outcome %s: %s\n", res.Outcome, res.Error)
	}
	if res.FellBack {
		fmt.Fprintln(w, "Fell back to the local plan.")
	}
}

func printReport(w io.Writer, report *core.ExecutionReport) {
	if report.NothingToDo {
		fmt.Fprintln(w, "Nothing to do.")
		return
	}
	if report.Highest != nil {
		fmt.Fprintf(w, "Highest priority: %s (%s)\n", report.Highest.Code, report.Highest.Action)
	}
	fmt.Fprintf(w, "Orders: %d  Alerts: %d  Monitored: %d  Skipped: %d  Failed: %d\n",
		len(report.Orders), len(report.Alerts), len(report.Monitored), len(report.Skipped), report.Failed)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Commands:
  /products               list stock records
  /product <code>         show one record
  /new-product            create a record interactively
  /delete <code>          delete a record
  /suggestions            reorder quantities
  /alerts                 out-of-stock, fast-moving products
  /plan                   build the acquisition plan and optionally execute it
  /review                 classify every product
  /analyze                data overview
  /help                   this list
  /exit                   quit`)
}
