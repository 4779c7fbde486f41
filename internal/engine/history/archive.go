package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_scrape/internal/engine"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Package-level singleton, set from main.go.
var archiveDB *ArchiveDB

// SetArchiveDB sets the package-level archive instance.
func SetArchiveDB(db *ArchiveDB) { archiveDB = db }

// GetArchiveDB returns the package-level archive instance (may be nil).
func GetArchiveDB() *ArchiveDB { return archiveDB }

// ArchiveDB mirrors history rows into Postgres. Without a configured
// DSN the archive stays nil and Record skips it.
type ArchiveDB struct {
	pool *pgxpool.Pool
}

// ConnectArchiveDB creates a pgx pool and runs schema migrations.
func ConnectArchiveDB(ctx context.Context, databaseURL string) (*ArchiveDB, error) {
	if databaseURL == "" {
		return nil, errors.New("SCRAPE_ARCHIVE_DB is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse SCRAPE_ARCHIVE_DB: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &ArchiveDB{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("archive postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *ArchiveDB) Close() {
	db.pool.Close()
}

func (db *ArchiveDB) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// InsertEntry writes one history row through to the archive.
func (db *ArchiveDB) InsertEntry(ctx context.Context, e Entry) error {
	ts, err := time.Parse(time.RFC3339, e.CreatedAt)
	if err != nil {
		ts = time.Now().UTC()
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO scrape_history_archive (tool, target, result_type, folder, filename, bytes, status, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.Tool, e.Target, e.ResultType, e.Folder, e.Filename, e.Bytes, e.Status, e.Error, ts,
	)
	if err != nil {
		return fmt.Errorf("archive: insert: %w", err)
	}
	engine.IncrArchiveWrites()
	return nil
}
