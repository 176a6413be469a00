package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"supply-agent/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop. It reads slash commands from reader until
// /exit or end of input. Plans are shown first and executed only after confirmation.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, w io.Writer) {
	health := svc.Health(ctx)
	fmt.Fprintln(w, "Supply Agent")
	fmt.Fprintf(w, "Store: %s  Strategy: %s  Delegate: %s\n", health.Store, health.Strategy, health.DelegateState)
	fmt.Fprintln(w, "Use /help for commands.")
	rule(w, "-", 70)

	confirm := func(prompt string) bool {
		fmt.Fprint(w, prompt)
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToLower(choice))
		return choice == "y" || choice == "yes"
	}

	dispatch := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "products", "ls":
			result, err := svc.ListProducts(ctx)
			if err != nil {
				return err
			}
			printProducts(w, result)

		case "product", "p":
			if len(args) < 1 {
				fmt.Fprintln(w, "Usage: /product <code>")
				return nil
			}
			rec, err := svc.GetProduct(ctx, args[0])
			if err != nil {
				return err
			}
			printProduct(w, rec)

		case "new-product":
			handleNewProduct(ctx, reader, w, svc)

		case "delete":
			if len(args) < 1 {
				fmt.Fprintln(w, "Usage: /delete <code>")
				return nil
			}
			if !confirm(fmt.Sprintf("Delete %s? (y/n): ", args[0])) {
				fmt.Fprintln(w, "Cancelled.")
				return nil
			}
			if err := svc.DeleteProduct(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(w, "Product %s deleted.\n", args[0])

		case "suggestions", "sug":
			result, err := svc.Suggestions(ctx)
			if err != nil {
				return err
			}
			printSuggestions(w, result)

		case "alerts":
			result, err := svc.Alerts(ctx)
			if err != nil {
				return err
			}
			printAlerts(w, result)

		case "plan":
			result, err := svc.AcquisitionPlan(ctx)
			if err != nil {
				return err
			}
			printPlanResult(w, result)
			if len(result.Items) == 0 {
				return nil
			}
			if !confirm("\nExecute this plan? (y/n): ") {
				fmt.Fprintln(w, "Plan not executed.")
				return nil
			}
			printReport(w, svc.ExecutePlan(ctx, result.Items))

		case "review":
			result, err := svc.StockReview(ctx)
			if err != nil {
				return err
			}
			printPlan(w, "STOCK REVIEW", result.Items)

		case "analyze":
			summary, err := svc.Analyze(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			return summary.WriteText(w)

		case "help", "h":
			printHelp(w)

		case "exit", "quit", "q":
			return errExit

		default:
			fmt.Fprintf(w, "Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Fprint(w, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if readErr != nil {
				fmt.Fprintln(w)
				return
			}
			continue
		}
		if !strings.HasPrefix(input, "/") {
			fmt.Fprintln(w, "Commands start with /. Type /help for the list.")
			continue
		}
		if err := dispatch(input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(w, "Goodbye!")
				return
			}
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
}
