package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"supply-agent/internal/core"
)

// InsertBatchSize is the number of rows per INSERT statement.
const InsertBatchSize = 1000

// progressEvery emits a progress notice after this many batches.
const progressEvery = 10

// ScriptStats describes a generated script.
type ScriptStats struct {
	Rows    int `json:"rows"`
	Batches int `json:"batches"`
}

// WriteInsertScript writes a PostgreSQL script that loads records into stock_records inside
// one transaction, batching rows and raising a progress notice every ten batches.
func WriteInsertScript(w io.Writer, records []core.StockRecord, generatedAt time.Time) (ScriptStats, error) {
	bw := bufio.NewWriter(w)
	stats := ScriptStats{Rows: len(records)}

	fmt.Fprintln(bw, "-- stock_records load script")
	fmt.Fprintf(bw, "-- rows: %d\n", len(records))
	fmt.Fprintf(bw, "-- generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(bw, "BEGIN;")
	fmt.Fprintln(bw)

	for start := 0; start < len(records); start += InsertBatchSize {
		end := start + InsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		stats.Batches++

		fmt.Fprintf(bw, "-- batch %d (%d rows)\n", stats.Batches, len(batch))
		fmt.Fprintln(bw, "INSERT INTO stock_records")
		fmt.Fprintln(bw, "    (code, abc, current_balance, pending_purchases, expected_receipt,")
		fmt.Fprintln(bw, "     consumption_rate, max_threshold, loss_coefficient)")
		fmt.Fprintln(bw, "VALUES")
		for i, rec := range batch {
			sep := ","
			if i == len(batch)-1 {
				sep = ""
			}
			fmt.Fprintf(bw, "    (%s, %s, %d, %d, %d, %s, %s, %s)%s\n",
				quote(rec.Code), abcLiteral(rec.ABC), rec.CurrentBalance, rec.PendingPurchases, rec.ExpectedReceipt,
				floatLiteral(rec.ConsumptionRate), thresholdLiteral(rec.MaxThreshold), floatLiteral(rec.LossCoefficient), sep)
		}
		fmt.Fprintln(bw, "ON CONFLICT (code) DO NOTHING;")
		fmt.Fprintln(bw)

		if stats.Batches%progressEvery == 0 {
			fmt.Fprintf(bw, "DO $$ BEGIN RAISE NOTICE 'processed %d of %d rows'; END $$;\n\n", end, len(records))
		}
	}

	fmt.Fprintln(bw, "SELECT COUNT(*) AS total_rows FROM stock_records;")
	fmt.Fprintln(bw, "COMMIT;")

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write insert script: %w", err)
	}
	return stats, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func abcLiteral(c core.ABCClass) string {
	if c == "" {
		return "NULL"
	}
	return quote(string(c))
}

func floatLiteral(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func thresholdLiteral(f *float64) string {
	if f == nil {
		return "NULL"
	}
	return floatLiteral(*f)
}
