package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"supply-agent/internal/core"
)

// PGStore keeps stock records in the stock_records table.
type PGStore struct {
	pool     *pgxpool.Pool
	log      logrus.FieldLogger
	observer core.Observer
}

// NewPGStore constructs a StockStore backed by PostgreSQL.
func NewPGStore(pool *pgxpool.Pool, log logrus.FieldLogger, observer core.Observer) *PGStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if observer == nil {
		observer = core.NopObserver{}
	}
	return &PGStore{pool: pool, log: log.WithField("store", "postgres"), observer: observer}
}

const recordColumns = `code, COALESCE(abc, ''), current_balance, pending_purchases, expected_receipt,
	consumption_rate, max_threshold, loss_coefficient`

func scanRecord(row pgx.Row) (core.StockRecord, error) {
	var rec core.StockRecord
	var abc string
	err := row.Scan(&rec.Code, &abc, &rec.CurrentBalance, &rec.PendingPurchases, &rec.ExpectedReceipt,
		&rec.ConsumptionRate, &rec.MaxThreshold, &rec.LossCoefficient)
	rec.ABC = core.ABCClass(abc)
	return rec, err
}

func nullableABC(c core.ABCClass) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

func (s *PGStore) ListRecords(ctx context.Context) ([]core.StockRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM stock_records ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock records: %w", err)
	}
	defer rows.Close()

	records := []core.StockRecord{}
	i := 0
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err == nil {
			err = ValidateRecord(rec, i)
		}
		if err != nil {
			s.log.WithError(err).WithField("index", i).Warn("skipping invalid stock record")
			s.observer.RecordSkipped("invalid_record")
			i++
			continue
		}
		records = append(records, rec)
		i++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stock records: %w", err)
	}
	return records, nil
}

func (s *PGStore) GetRecord(ctx context.Context, code string) (core.StockRecord, bool, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM stock_records WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.StockRecord{}, false, nil
	}
	if err != nil {
		return core.StockRecord{}, false, fmt.Errorf("failed to load stock record %q: %w", code, err)
	}
	if err := ValidateRecord(rec, 0); err != nil {
		s.log.WithError(err).WithField("code", code).Warn("ignoring invalid stock record")
		s.observer.RecordSkipped("invalid_record")
		return core.StockRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *PGStore) UpsertRecord(ctx context.Context, rec core.StockRecord) error {
	if err := ValidateRecord(rec, 0); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stock_records (code, abc, current_balance, pending_purchases, expected_receipt,
			consumption_rate, max_threshold, loss_coefficient, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (code) DO UPDATE SET
			abc = EXCLUDED.abc,
			current_balance = EXCLUDED.current_balance,
			pending_purchases = EXCLUDED.pending_purchases,
			expected_receipt = EXCLUDED.expected_receipt,
			consumption_rate = EXCLUDED.consumption_rate,
			max_threshold = EXCLUDED.max_threshold,
			loss_coefficient = EXCLUDED.loss_coefficient,
			updated_at = now()`,
		rec.Code, nullableABC(rec.ABC), rec.CurrentBalance, rec.PendingPurchases, rec.ExpectedReceipt,
		rec.ConsumptionRate, rec.MaxThreshold, rec.LossCoefficient,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock record %q: %w", rec.Code, err)
	}
	return nil
}

func (s *PGStore) DeleteRecord(ctx context.Context, code string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stock_records WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete stock record %q: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReplaceRecords swaps the whole table for records in one transaction using COPY.
func (s *PGStore) ReplaceRecords(ctx context.Context, records []core.StockRecord) error {
	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		if err := ValidateRecord(rec, i); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
		}
		rows = append(rows, []any{
			rec.Code, nullableABC(rec.ABC), rec.CurrentBalance, rec.PendingPurchases, rec.ExpectedReceipt,
			rec.ConsumptionRate, rec.MaxThreshold, rec.LossCoefficient,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stock_records`); err != nil {
		return fmt.Errorf("failed to clear stock records: %w", err)
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"stock_records"},
		[]string{"code", "abc", "current_balance", "pending_purchases", "expected_receipt",
			"consumption_rate", "max_threshold", "loss_coefficient"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy stock records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stock records: %w", err)
	}
	s.log.WithField("rows", n).Info("stock records replaced")
	return nil
}
