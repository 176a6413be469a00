package core

import "context"

// ABCClass is the inventory value tier of a product. Informational only.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// StockRecord is the stock position of one tracked product (SKU).
// MaxThreshold is optional; when nil the ceiling is derived from Policy.MaxThresholdFor.
type StockRecord struct {
	Code             string   `json:"code" validate:"required"`
	ABC              ABCClass `json:"abc,omitempty" validate:"omitempty,oneof=A B C"`
	CurrentBalance   int      `json:"current_balance" validate:"gte=0"`
	PendingPurchases int      `json:"pending_purchases" validate:"gte=0"`
	ExpectedReceipt  int      `json:"expected_receipt" validate:"gte=0"`
	ConsumptionRate  float64  `json:"consumption_rate" validate:"gte=0"`
	MaxThreshold     *float64 `json:"max_threshold,omitempty" validate:"omitempty,gt=0"`
	LossCoefficient  float64  `json:"loss_coefficient"`
}

// ReorderSuggestion is the computed purchase need for one record. Never persisted.
type ReorderSuggestion struct {
	Code            string  `json:"code"`
	CurrentBalance  int     `json:"current_balance"`
	ConsumptionRate float64 `json:"consumption_rate"`
	ReorderQuantity int     `json:"reorder_quantity"`
}

// StockStore is the persistence contract the engine consumes.
// Implementations validate records at their boundary and own their own locking.
type StockStore interface {
	// ListRecords returns every valid record. Invalid rows are skipped, not fatal.
	ListRecords(ctx context.Context) ([]StockRecord, error)

	// GetRecord returns the record for code; found is false when it does not exist.
	GetRecord(ctx context.Context, code string) (rec StockRecord, found bool, err error)

	// UpsertRecord inserts or replaces the record keyed by its Code.
	UpsertRecord(ctx context.Context, rec StockRecord) error

	// DeleteRecord removes the record and reports whether it existed.
	DeleteRecord(ctx context.Context, code string) (bool, error)
}
