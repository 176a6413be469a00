package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"supply-agent/internal/core"
)

const productsKey = "products"

// JSONStore keeps stock records in a single JSON document under the "products" key.
// Other top-level keys are preserved on write. Rows that fail to decode or validate are
// skipped on read but kept verbatim in the file.
type JSONStore struct {
	mu       sync.RWMutex
	path     string
	log      logrus.FieldLogger
	observer core.Observer
}

// NewJSONStore returns a store backed by path. The file is created on first write.
func NewJSONStore(path string, log logrus.FieldLogger, observer core.Observer) *JSONStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if observer == nil {
		observer = core.NopObserver{}
	}
	return &JSONStore{path: path, log: log.WithField("store", "json"), observer: observer}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

type document struct {
	other    map[string]json.RawMessage
	products []json.RawMessage
}

func (s *JSONStore) readDocument() (*document, error) {
	doc := &document{other: map[string]json.RawMessage{}}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc.other); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if raw, ok := doc.other[productsKey]; ok {
		delete(doc.other, productsKey)
		if err := json.Unmarshal(raw, &doc.products); err != nil {
			return nil, fmt.Errorf("failed to parse %s: products is not a list: %w", s.path, err)
		}
	}
	return doc, nil
}

func (s *JSONStore) writeDocument(doc *document) error {
	out := make(map[string]json.RawMessage, len(doc.other)+1)
	for k, v := range doc.other {
		out[k] = v
	}
	products := doc.products
	if products == nil {
		products = []json.RawMessage{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	out[productsKey] = raw

	b, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".stock-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// decodeRecord turns one raw row into a validated record. Missing numeric fields are 0.
func decodeRecord(raw json.RawMessage, index int) (core.StockRecord, error) {
	var rec core.StockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		var probe struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(raw, &probe)
		return core.StockRecord{}, &core.DataError{Code: probe.Code, Index: index, Reason: err.Error()}
	}
	if err := ValidateRecord(rec, index); err != nil {
		return core.StockRecord{}, err
	}
	return rec, nil
}

func rawCode(raw json.RawMessage) string {
	var probe struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.Code
}

func (s *JSONStore) ListRecords(ctx context.Context) ([]core.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}

	records := make([]core.StockRecord, 0, len(doc.products))
	seen := make(map[string]bool, len(doc.products))
	for i, raw := range doc.products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(raw, i)
		if err == nil && seen[rec.Code] {
			err = &core.DataError{Code: rec.Code, Index: i, Reason: "duplicate code"}
		}
		if err != nil {
			s.log.WithError(err).Warn("skipping invalid stock record")
			s.observer.RecordSkipped("invalid_record")
			continue
		}
		seen[rec.Code] = true
		records = append(records, rec)
	}
	return records, nil
}

func (s *JSONStore) GetRecord(ctx context.Context, code string) (core.StockRecord, bool, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return core.StockRecord{}, false, err
	}
	for _, rec := range records {
		if rec.Code == code {
			return rec, true, nil
		}
	}
	return core.StockRecord{}, false, nil
}

func (s *JSONStore) UpsertRecord(_ context.Context, rec core.StockRecord) error {
	if err := ValidateRecord(rec, 0); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %q: %w", rec.Code, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range doc.products {
		if rawCode(existing) == rec.Code {
			doc.products[i] = raw
			replaced = true
			break
		}
	}
	if !replaced {
		doc.products = append(doc.products, raw)
	}
	return s.writeDocument(doc)
}

func (s *JSONStore) DeleteRecord(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return false, err
	}
	kept := doc.products[:0]
	removed := false
	for _, raw := range doc.products {
		if !removed && rawCode(raw) == code {
			removed = true
			continue
		}
		kept = append(kept, raw)
	}
	if !removed {
		return false, nil
	}
	doc.products = kept
	return true, s.writeDocument(doc)
}

// ReplaceRecords overwrites the product list with records, leaving other keys untouched.
func (s *JSONStore) ReplaceRecords(_ context.Context, records []core.StockRecord) error {
	products := make([]json.RawMessage, 0, len(records))
	for i, rec := range records {
		if err := ValidateRecord(rec, i); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %q: %w", rec.Code, err)
		}
		products = append(products, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	doc.products = products
	return s.writeDocument(doc)
}
