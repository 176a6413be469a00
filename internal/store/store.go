package store

import (
	"context"

	"supply-agent/internal/core"
)

// Backend is a StockStore that can also be bulk-loaded from an import.
type Backend interface {
	core.StockStore
	ReplaceRecords(ctx context.Context, records []core.StockRecord) error
}

var (
	_ Backend = (*JSONStore)(nil)
	_ Backend = (*PGStore)(nil)
)
