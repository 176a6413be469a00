package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"supply-agent/internal/app"
	"supply-agent/internal/core"
)

// handleNewProduct runs an interactive record creation session.
// Blank answers keep the zero value; "cancel" aborts at any prompt.
func handleNewProduct(ctx context.Context, reader *bufio.Reader, w io.Writer, svc app.ApplicationService) {
	fmt.Fprintln(w, "Creating a stock record. Type 'cancel' at any prompt to abort.")

	ask := func(label string) (string, bool) {
		fmt.Fprintf(w, "  %s: ", label)
		raw, _ := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(w, "Cancelled.")
			return "", false
		}
		return raw, true
	}
	askInt := func(label string) (int, bool) {
		for {
			raw, ok := ask(label)
			if !ok {
				return 0, false
			}
			if raw == "" {
				return 0, true
			}
			n, err := strconv.Atoi(raw)
			if err == nil && n >= 0 {
				return n, true
			}
			fmt.Fprintln(w, "  Enter a whole number >= 0.")
		}
	}
	askFloat := func(label string) (float64, bool) {
		for {
			raw, ok := ask(label)
			if !ok {
				return 0, false
			}
			if raw == "" {
				return 0, true
			}
			f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
			if err == nil && f >= 0 {
				return f, true
			}
			fmt.Fprintln(w, "  Enter a number >= 0.")
		}
	}

	var rec core.StockRecord
	var ok bool
	if rec.Code, ok = ask("Code"); !ok {
		return
	}
	abc, ok := ask("ABC class (A/B/C, blank for none)")
	if !ok {
		return
	}
	rec.ABC = core.ABCClass(strings.ToUpper(abc))
	if rec.CurrentBalance, ok = askInt("Current balance"); !ok {
		return
	}
	if rec.PendingPurchases, ok = askInt("Pending purchases"); !ok {
		return
	}
	if rec.ExpectedReceipt, ok = askInt("Expected receipt"); !ok {
		return
	}
	if rec.ConsumptionRate, ok = askFloat("Monthly consumption"); !ok {
		return
	}
	ceiling, ok := askFloat("Max threshold (blank to derive)")
	if !ok {
		return
	}
	if ceiling > 0 {
		rec.MaxThreshold = &ceiling
	}

	created, err := svc.CreateProduct(ctx, rec)
	if err != nil {
		fmt.Fprintf(w, "Create FAILED: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Product %s created.\n", created.Code)
}
