// seed replaces the stock_records table with the contents of a stock extract CSV.
//
// Usage: go run ./cmd/seed data/extract.csv
package main

import (
	"context"
	"os"

	"supply-agent/internal/config"
	"supply-agent/internal/db"
	"supply-agent/internal/ingest"
	"supply-agent/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := config.NewLogger(cfg.LogLevel, "text", os.Stderr)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	if len(os.Args) < 2 {
		log.Fatal("usage: seed <extract.csv>")
	}

	res, err := ingest.LoadStockCSVFile(os.Args[1])
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	for _, skip := range res.Skipped {
		log.WithError(skip).Warn("row skipped")
	}
	if len(res.Records) == 0 {
		log.Fatal("no valid records in extract")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	pg := store.NewPGStore(pool, log, nil)
	if err := pg.ReplaceRecords(ctx, res.Records); err != nil {
		pool.Close()
		log.Fatalf("replace: %v", err)
	}

	log.WithFields(logrus.Fields{
		"records": len(res.Records),
		"skipped": len(res.Skipped),
	}).Info("stock records seeded")
}
