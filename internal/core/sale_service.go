package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type saleService struct {
	pool *pgxpool.Pool
}

// NewSaleService constructs a SaleService backed by PostgreSQL.
func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

func scanSale(row pgx.Row) (*Sale, error) {
	s := &Sale{}
	var amount string
	if err := row.Scan(&s.ID, &s.Name, &amount, &s.SoldOn); err != nil {
		return nil, err
	}
	var err error
	if s.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad stored amount %q: %w", amount, err)
	}
	s.SoldDate = s.SoldOn.Format(SaleDateLayout)
	return s, nil
}

func (s *saleService) List(ctx context.Context) ([]Sale, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, amount::text, sold_on FROM sales ORDER BY sold_on DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}
	return sales, rows.Err()
}

func (s *saleService) Get(ctx context.Context, id int) (*Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, `SELECT id, name, amount::text, sold_on FROM sales WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load sale id=%d: %w", id, err)
	}
	return sale, nil
}

func (s *saleService) Create(ctx context.Context, in SaleInput) (*Sale, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: sale name is required", ErrInvalidInput)
	}
	if in.Amount == nil {
		return nil, fmt.Errorf("%w: sale amount is required", ErrInvalidInput)
	}
	if in.Date == nil {
		return nil, fmt.Errorf("%w: sale date is required (DD/MM/YYYY)", ErrInvalidInput)
	}
	soldOn, err := ParseSaleDate(*in.Date)
	if err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: sale amount must not be negative", ErrInvalidInput)
	}

	sale, err := scanSale(s.pool.QueryRow(ctx, `
		INSERT INTO sales (name, amount, sold_on) VALUES ($1, $2::numeric, $3)
		RETURNING id, name, amount::text, sold_on`,
		strings.TrimSpace(*in.Name), in.Amount.String(), soldOn,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) Update(ctx context.Context, id int, in SaleInput) (*Sale, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, amount, soldOn := current.Name, current.Amount, current.SoldOn
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: sale name must not be empty", ErrInvalidInput)
		}
		name = strings.TrimSpace(*in.Name)
	}
	if in.Amount != nil {
		if in.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: sale amount must not be negative", ErrInvalidInput)
		}
		amount = *in.Amount
	}
	if in.Date != nil {
		var t time.Time
		if t, err = ParseSaleDate(*in.Date); err != nil {
			return nil, err
		}
		soldOn = t
	}

	sale, err := scanSale(s.pool.QueryRow(ctx, `
		UPDATE sales SET name = $1, amount = $2::numeric, sold_on = $3 WHERE id = $4
		RETURNING id, name, amount::text, sold_on`,
		name, amount.String(), soldOn, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sale id=%d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update sale id=%d: %w", id, err)
	}
	return sale, nil
}

func (s *saleService) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale id=%d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale id=%d: %w", id, ErrNotFound)
	}
	return nil
}
