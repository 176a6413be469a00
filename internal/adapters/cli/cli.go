package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `Available commands:
  agent                         perceive, plan and execute one cycle
  suggestions | alerts | plan | review | analyze
  import-csv <file.csv>         replace the store with a stock extract
  gen-inserts <file.csv> [out]  write a batched SQL load script (stdout when out is omitted)
  export <out.xlsx>             write suggestions, alerts and plan as a workbook
  create-user                   create an account from JSON on stdin
Add --json to print machine-readable output.`

// Run executes a one-shot CLI command. args is os.Args[1:]; the first element is the
// subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, stdin io.Reader, stdout io.Writer) error {
	asJSON := false
	rest := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--json" {
			asJSON = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		return fmt.Errorf("%w: no command\n%s", ErrUsage, usage)
	}
	args = rest

	emit := func(v any, text func()) error {
		if asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		text()
		return nil
	}

	switch args[0] {
	case "agent", "run":
		res, err := svc.RunCycle(ctx)
		if err != nil {
			return fmt.Errorf("agent cycle: %w", err)
		}
		return emit(res, func() { printCycle(stdout, res) })

	case "suggestions", "sug":
		res, err := svc.Suggestions(ctx)
		if err != nil {
			return err
		}
		return emit(res, func() { printSuggestions(stdout, res.Suggestions) })

	case "alerts":
		res, err := svc.Alerts(ctx)
		if err != nil {
			return err
		}
		return emit(res, func() {
			fmt.Fprintf(stdout, "%d stock alerts\n", len(res.Alerts))
			for _, rec := range res.Alerts {
				fmt.Fprintf(stdout, "  %-14s consumption %.2f\n", rec.Code, rec.ConsumptionRate)
			}
		})

	case "plan":
		res, err := svc.AcquisitionPlan(ctx)
		if err != nil {
			return err
		}
		return emit(res, func() { printPlan(stdout, res.Items) })

	case "review":
		res, err := svc.StockReview(ctx)
		if err != nil {
			return err
		}
		return emit(res, func() { printPlan(stdout, res.Items) })

	case "analyze":
		res, err := svc.Analyze(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return emit(res, nil)
		}
		return res.WriteText(stdout)

	case "import-csv", "import":
		if len(args) < 2 {
			return fmt.Errorf("%w: app import-csv <file.csv>", ErrUsage)
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		res, err := svc.ImportCSV(ctx, f)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return emit(res, func() {
			fmt.Fprintf(stdout, "Imported %d records, skipped %d rows.\n", res.Imported, len(res.Skipped))
			for _, msg := range res.Skipped {
				fmt.Fprintf(stdout, "  skipped: %s\n", msg)
			}
		})

	case "gen-inserts":
		if len(args) < 2 {
			return fmt.Errorf("%w: app gen-inserts <file.csv> [out.sql]", ErrUsage)
		}
		in, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer in.Close()
		out := stdout
		if len(args) >= 3 {
			f, err := os.Create(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		res, err := svc.GenerateInserts(ctx, in, out)
		if err != nil {
			return err
		}
		if out != stdout {
			fmt.Fprintf(stdout, "Wrote %d rows in %d batches to %s (%d rows skipped).\n",
				res.Stats.Rows, res.Stats.Batches, args[2], len(res.Skipped))
		}
		return nil

	case "export":
		if len(args) < 2 {
			return fmt.Errorf("%w: app export <out.xlsx>", ErrUsage)
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := svc.ExportWorkbook(ctx, f); err != nil {
			f.Close()
			return fmt.Errorf("export failed: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Workbook written to %s\n", args[1])
		return nil

	case "create-user":
		var body struct {
			FirstName string    `json:"first_name"`
			LastName  string    `json:"last_name"`
			BirthDate string    `json:"birth_date"`
			TaxID     string    `json:"tax_id"`
			Role      core.Role `json:"role"`
			Email     string    `json:"email"`
			Password  string    `json:"password"`
		}
		if err := json.NewDecoder(stdin).Decode(&body); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		req := app.CreateUserRequest{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			TaxID:     body.TaxID,
			Role:      body.Role,
			Email:     body.Email,
			Password:  body.Password,
		}
		if body.BirthDate != "" {
			d, err := time.Parse("2006-01-02", body.BirthDate)
			if err != nil {
				return fmt.Errorf("birth_date must be YYYY-MM-DD: %w", err)
			}
			req.BirthDate = &d
		}
		u, err := svc.CreateUser(ctx, req)
		if err != nil {
			return err
		}
		return emit(u, func() { fmt.Fprintf(stdout, "User %d (%s, %s) created.\n", u.ID, u.Email, u.Role) })

	default:
		return fmt.Errorf("%w: unknown command %s\n%s", ErrUsage, args[0], usage)
	}
}

func printSuggestions(w io.Writer, suggestions []core.ReorderSuggestion) {
	fmt.Fprintf(w, "%-14s %10s %12s %10s\n", "CODE", "BALANCE", "CONSUMPTION", "REORDER")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, s := range suggestions {
		fmt.Fprintf(w, "%-14s %10d %12.2f %10d\n", s.Code, s.CurrentBalance, s.ConsumptionRate, s.ReorderQuantity)
	}
}

func printPlan(w io.Writer, items []core.ActionPlanItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No actions.")
		return
	}
	fmt.Fprintf(w, "%4s %-14s %-12s %8s  %s\n", "RANK", "CODE", "ACTION", "QTY", "JUSTIFICATION")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, it := range items {
		fmt.Fprintf(w, "%4d %-14s %-12s %8d  %s\n", it.PriorityRank, it.Code, it.Action, it.ActionQuantity, it.Justification)
	}
}

func printCycle(w io.Writer, res *app.CycleResult) {
	fmt.Fprintf(w, "Perceived %d records. Plan cycle %s (%s, source %s).\n",
		res.Records, res.Plan.CycleID, res.Plan.Strategy, res.Plan.Source)
	if res.Plan.Error != "" {
		fmt.Fprintf(w, "Delegate %s: %s\n", res.Plan.Outcome, res.Plan.Error)
	}
	printPlan(w, res.Plan.Items)
	r := res.Report
	if r.NothingToDo {
		fmt.Fprintln(w, "Nothing to do.")
		return
	}
	fmt.Fprintf(w, "Highest priority: %s (%s)\n", r.Highest.Code, r.Highest.Action)
	fmt.Fprintf(w, "Orders: %d  Alerts: %d  Monitored: %d  Failed: %d\n",
		len(r.Orders), len(r.Alerts), len(r.Monitored), r.Failed)
}
