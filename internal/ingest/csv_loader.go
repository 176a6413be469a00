package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"supply-agent/internal/core"
	"supply-agent/internal/store"
)

// Column aliases accepted in the stock extract header. The first name is the one the
// warehouse export uses; the second is the StockRecord JSON name.
var columnAliases = map[string][]string{
	"code":              {"codigo", "code"},
	"abc":               {"abc"},
	"current_balance":   {"saldo_manut", "current_balance"},
	"pending_purchases": {"provid_compras", "pending_purchases"},
	"expected_receipt":  {"recebimento_esperado", "expected_receipt"},
	"consumption_rate":  {"cmm", "consumption_rate"},
	"max_threshold":     {"estoque_maximo", "max_threshold"},
	"loss_coefficient":  {"coef_perda", "loss_coefficient"},
}

var requiredColumns = []string{"code", "current_balance", "consumption_rate"}

// LoadResult is the outcome of reading a stock extract.
type LoadResult struct {
	Records []core.StockRecord
	// Skipped holds one *core.DataError per rejected row.
	Skipped []error
}

// LoadStockCSVFile opens path and reads it with LoadStockCSV.
func LoadStockCSVFile(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock file %s: %w", path, err)
	}
	defer f.Close()
	return LoadStockCSV(f)
}

// LoadStockCSV reads the semicolon-delimited stock extract. Columns are matched by header
// name, so extra columns are ignored. Rows that fail to parse or validate are skipped and
// reported in Skipped; duplicate codes keep the first row. Input that is not valid UTF-8
// is decoded as Windows-1252, the encoding of spreadsheet exports on Portuguese Windows.
func LoadStockCSV(r io.Reader) (*LoadResult, error) {
	src, err := decodeExtract(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(src)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("stock CSV is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stock CSV header: %w", err)
	}

	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Records: []core.StockRecord{}}
	seen := map[string]bool{}
	for row := 2; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Skipped = append(result.Skipped, &core.DataError{Index: row, Reason: err.Error()})
			continue
		}
		if isBlank(fields) {
			continue
		}

		rec, err := parseRow(fields, index, row)
		if err == nil {
			err = store.ValidateRecord(rec, row)
		}
		if err == nil && seen[rec.Code] {
			err = &core.DataError{Code: rec.Code, Index: row, Reason: "duplicate code"}
		}
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			continue
		}
		seen[rec.Code] = true
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeExtract(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stock CSV: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder()), nil
}

func mapHeader(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		positions[h] = i
	}

	index := map[string]int{}
	for field, names := range columnAliases {
		for _, name := range names {
			if pos, ok := positions[name]; ok {
				index[field] = pos
				break
			}
		}
	}
	var missing []string
	for _, field := range requiredColumns {
		if _, ok := index[field]; !ok {
			missing = append(missing, columnAliases[field][0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("stock CSV header missing columns %v (got %v)", missing, header)
	}
	return index, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(fields []string, index map[string]int, row int) (core.StockRecord, error) {
	get := func(field string) string {
		pos, ok := index[field]
		if !ok || pos >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[pos])
	}

	rec := core.StockRecord{
		Code: get("code"),
		ABC:  core.ABCClass(strings.ToUpper(get("abc"))),
	}

	var err error
	fail := func(field string, cause error) (core.StockRecord, error) {
		return core.StockRecord{}, &core.DataError{Code: rec.Code, Index: row, Reason: fmt.Sprintf("%s: %v", field, cause)}
	}
	if rec.CurrentBalance, err = parseCount(get("current_balance")); err != nil {
		return fail("current_balance", err)
	}
	if rec.PendingPurchases, err = parseCount(get("pending_purchases")); err != nil {
		return fail("pending_purchases", err)
	}
	if rec.ExpectedReceipt, err = parseCount(get("expected_receipt")); err != nil {
		return fail("expected_receipt", err)
	}
	if rec.ConsumptionRate, err = parseNumber(get("consumption_rate")); err != nil {
		return fail("consumption_rate", err)
	}
	if rec.LossCoefficient, err = parseNumber(get("loss_coefficient")); err != nil {
		return fail("loss_coefficient", err)
	}
	if raw := get("max_threshold"); raw != "" {
		ceiling, err := parseNumber(raw)
		if err != nil {
			return fail("max_threshold", err)
		}
		if ceiling > 0 {
			rec.MaxThreshold = &ceiling
		}
	}
	return rec, nil
}

// parseNumber accepts "1.5", "1,5" and blank (zero).
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// parseCount accepts whole numbers, including exports that write them as "12.0".
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}
