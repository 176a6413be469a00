package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SaleDateLayout is the day-first format sale dates are exchanged in.
const SaleDateLayout = "02/01/2006"

// Sale is one recorded sale.
type Sale struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	SoldOn   time.Time       `json:"-"`
	SoldDate string          `json:"sale_date"`
}

// SaleInput creates or partially updates a sale. Nil fields keep their stored value on update.
type SaleInput struct {
	Name   *string          `json:"name"`
	Amount *decimal.Decimal `json:"amount"`
	Date   *string          `json:"sale_date"`
}

// ParseSaleDate parses a DD/MM/YYYY date.
func ParseSaleDate(s string) (time.Time, error) {
	t, err := time.Parse(SaleDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: sale date %q must be DD/MM/YYYY", ErrInvalidInput, s)
	}
	return t, nil
}

// SaleService manages sale records.
type SaleService interface {
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id int) (*Sale, error)
	Create(ctx context.Context, in SaleInput) (*Sale, error)
	Update(ctx context.Context, id int, in SaleInput) (*Sale, error)
	Delete(ctx context.Context, id int) error
}
