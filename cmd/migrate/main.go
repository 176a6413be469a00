package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"supply-agent/internal/config"
)

const (
	migrationsDir = "migrations"
	lockKey       = 7462839
)

var log logrus.FieldLogger

func main() {
	_ = godotenv.Load()

	logger, err := config.NewLogger(os.Getenv("LOG_LEVEL"), "text", os.Stderr)
	if err != nil {
		logger, _ = config.NewLogger("info", "text", os.Stderr)
	}
	log = logger.WithField("module", "migrate")

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool := connectDB(ctx, url)
	defer pool.Close()

	conn := acquireLock(ctx, pool)
	defer conn.Release()

	setupSchemaMigrations(ctx, pool)

	applied := 0
	for _, filename := range discoverMigrations() {
		if applyMigration(ctx, pool, filename) {
			applied++
		}
	}

	log.WithField("applied", applied).Info("all migrations processed")
}

func connectDB(ctx context.Context, url string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	log.Debug("connected")
	return pool
}

// acquireLock holds a session advisory lock for the life of the returned connection.
func acquireLock(ctx context.Context, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("failed to acquire connection for lock: %v", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockKey).Scan(&locked); err != nil {
		log.Fatalf("failed to query advisory lock: %v", err)
	}
	if !locked {
		log.Fatal("another migrator is currently running")
	}
	return conn
}

func setupSchemaMigrations(ctx context.Context, pool *pgxpool.Pool) {
	const query = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := pool.Exec(ctx, query); err != nil {
		log.Fatalf("failed to create schema_migrations table: %v", err)
	}
}

func discoverMigrations() []string {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		log.Fatalf("failed to read migrations directory: %v", err)
	}

	var filenames []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version := extractVersion(entry.Name())
		if seen[version] {
			log.Fatalf("duplicate migration version %s", version)
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames
}

func extractVersion(filename string) string {
	version, _, ok := strings.Cut(filename, "_")
	if !ok {
		log.Fatalf("invalid migration filename %s, expected NNN_description.sql", filename)
	}
	return version
}

// applyMigration runs filename in its own transaction unless it is already recorded.
// A recorded version whose checksum changed is fatal.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, filename string) bool {
	entry := log.WithField("file", filename)
	version := extractVersion(filename)

	sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, filename))
	if err != nil {
		entry.Fatalf("failed to read migration: %v", err)
	}
	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])

	var existing string
	err = pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&existing)
	switch {
	case err == nil:
		if existing != checksum {
			entry.Fatalf("checksum mismatch: recorded %s, file %s", existing, checksum)
		}
		entry.Info("skip")
		return false
	case errors.Is(err, pgx.ErrNoRows):
	default:
		entry.Fatalf("failed to query schema_migrations: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		entry.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		entry.Fatalf("failed to execute migration: %v", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		version, filename, checksum); err != nil {
		entry.Fatalf("failed to record migration: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		entry.Fatalf("failed to commit: %v", err)
	}

	entry.Info("applied")
	return true
}
