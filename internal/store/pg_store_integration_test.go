package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"supply-agent/internal/core"
	"supply-agent/internal/store"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sql, err := os.ReadFile("../../migrations/001_stock_records.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE stock_records`); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return pool
}

func TestPGStore_RoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	s := store.NewPGStore(pool, quietLogger(), nil)

	max := 120.0
	if err := s.ReplaceRecords(ctx, []core.StockRecord{
		{Code: "A", ABC: core.ClassA, CurrentBalance: 2, ConsumptionRate: 4},
		{Code: "B", CurrentBalance: 95, ConsumptionRate: 0.9, MaxThreshold: &max},
	}); err != nil {
		t.Fatalf("ReplaceRecords: %v", err)
	}

	records, err := s.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if records[1].MaxThreshold == nil || *records[1].MaxThreshold != 120 || records[1].ABC != "" {
		t.Errorf("B = %+v", records[1])
	}

	if err := s.UpsertRecord(ctx, core.StockRecord{Code: "A", ABC: core.ClassB, CurrentBalance: 7}); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	got, found, err := s.GetRecord(ctx, "A")
	if err != nil || !found || got.CurrentBalance != 7 || got.ABC != core.ClassB {
		t.Errorf("GetRecord = %+v, %v, %v", got, found, err)
	}

	removed, err := s.DeleteRecord(ctx, "A")
	if err != nil || !removed {
		t.Errorf("DeleteRecord = %v, %v", removed, err)
	}
	if _, found, _ := s.GetRecord(ctx, "A"); found {
		t.Error("deleted record still present")
	}
}

func TestPGStore_InvalidRowIsNotServed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	if _, err := pool.Exec(ctx,
		`INSERT INTO stock_records (code, consumption_rate) VALUES ('NAN', 'NaN'::float8), ('OK', 1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	s := store.NewPGStore(pool, quietLogger(), nil)
	records, err := s.ListRecords(ctx)
	if err != nil || len(records) != 1 || records[0].Code != "OK" {
		t.Fatalf("ListRecords = %+v, %v", records, err)
	}
	if _, found, err := s.GetRecord(ctx, "NAN"); err != nil || found {
		t.Errorf("GetRecord(NAN) found = %v, err = %v; want not found", found, err)
	}
	if _, found, err := s.GetRecord(ctx, "OK"); err != nil || !found {
		t.Errorf("GetRecord(OK) found = %v, err = %v", found, err)
	}
}
