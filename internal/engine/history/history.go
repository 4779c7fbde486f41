package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_scrape/internal/engine"
)

// Entry status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is a single row in the invocation history.
type Entry struct {
	ID         int64  `json:"id"`
	Tool       string `json:"tool"`
	Target     string `json:"target"`
	ResultType string `json:"result_type,omitempty"`
	Folder     string `json:"folder,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Bytes      int64  `json:"bytes,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// HistoryListInput is the input for scrape_history listing.
type HistoryListInput struct {
	Tool  string `json:"tool,omitempty" jsonschema:"Filter by tool name: scrape_url, google_search, check_scrapingbee_usage"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max entries to return (default 50, cap 100)"`
}

// HistoryListResult is the output for scrape_history listing.
type HistoryListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// HistoryStatsResult aggregates the full history.
type HistoryStatsResult struct {
	Total      int            `json:"total"`
	ByTool     map[string]int `json:"by_tool"`
	Errors     int            `json:"errors"`
	TotalBytes int64          `json:"total_bytes"`
}

var (
	historyDB   *sql.DB
	historyOnce sync.Once
	historyErr  error
)

// openHistoryDB opens (or creates) the SQLite history database.
func openHistoryDB() (*sql.DB, error) {
	historyOnce.Do(func() {
		path := os.Getenv("SCRAPE_HISTORY_DB")
		if path == "" {
			path = filepath.Join(os.Getenv("HOME"), ".go_scrape", "history.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			historyErr = fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
			return
		}
		db, err := sql.Open("sqlite", path)
		if err != nil {
			historyErr = fmt.Errorf("history: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initHistorySchema(db); err != nil {
			historyErr = fmt.Errorf("history: init schema: %w", err)
			return
		}
		historyDB = db
	})
	return historyDB, historyErr
}

// initHistorySchema creates the history table if it doesn't exist.
func initHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS scrape_history (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tool        TEXT NOT NULL,
		target      TEXT NOT NULL,
		result_type TEXT,
		folder      TEXT,
		filename    TEXT,
		bytes       INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		error       TEXT,
		created_at  TEXT NOT NULL
	)`)
	return err
}

// Record appends one tool invocation to the history log. Writes are
// best-effort: a failure is logged and never surfaced to the tool
// caller.
func Record(ctx context.Context, e Entry) {
	db, err := openHistoryDB()
	if err != nil {
		slog.Warn("history unavailable", slog.Any("error", err))
		return
	}

	if e.Status == "" {
		e.Status = StatusOK
	}
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err = db.Exec(
		`INSERT INTO scrape_history (tool, target, result_type, folder, filename, bytes, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Tool, e.Target, e.ResultType, e.Folder, e.Filename, e.Bytes, e.Status, e.Error, e.CreatedAt,
	)
	if err != nil {
		slog.Warn("history write failed", slog.String("tool", e.Tool), slog.Any("error", err))
		return
	}
	engine.IncrHistoryWrites()

	if adb := GetArchiveDB(); adb != nil {
		if err := adb.InsertEntry(ctx, e); err != nil {
			slog.Warn("archive write failed", slog.String("tool", e.Tool), slog.Any("error", err))
		}
	}
}

// List returns recent history entries, newest first, optionally
// filtered by tool name.
func List(_ context.Context, input HistoryListInput) (*HistoryListResult, error) {
	db, err := openHistoryDB()
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var rows *sql.Rows
	if input.Tool != "" {
		rows, err = db.Query(
			`SELECT id, tool, target, result_type, folder, filename, bytes, status, error, created_at
			 FROM scrape_history WHERE tool = ? ORDER BY id DESC LIMIT ?`,
			input.Tool, limit,
		)
	} else {
		rows, err = db.Query(
			`SELECT id, tool, target, result_type, folder, filename, bytes, status, error, created_at
			 FROM scrape_history ORDER BY id DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var resultType, folder, filename, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.Tool, &e.Target, &resultType, &folder, &filename,
			&e.Bytes, &e.Status, &errText, &e.CreatedAt); err != nil {
			continue
		}
		e.ResultType = resultType.String
		e.Folder = folder.String
		e.Filename = filename.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}

	// Count total matching rows
	var total int
	if input.Tool != "" {
		db.QueryRow(`SELECT COUNT(*) FROM scrape_history WHERE tool = ?`, input.Tool).Scan(&total) //nolint:errcheck
	} else {
		db.QueryRow(`SELECT COUNT(*) FROM scrape_history`).Scan(&total) //nolint:errcheck
	}

	if entries == nil {
		entries = []Entry{}
	}
	return &HistoryListResult{Entries: entries, Total: total}, nil
}

// Stats aggregates the whole history: per-tool counts, error count and
// total bytes written.
func Stats(_ context.Context) (*HistoryStatsResult, error) {
	db, err := openHistoryDB()
	if err != nil {
		return nil, err
	}

	s := &HistoryStatsResult{ByTool: map[string]int{}}
	if err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM scrape_history`,
	).Scan(&s.Total, &s.TotalBytes); err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	db.QueryRow(`SELECT COUNT(*) FROM scrape_history WHERE status = ?`, StatusError).Scan(&s.Errors) //nolint:errcheck

	rows, err := db.Query(`SELECT tool, COUNT(*) FROM scrape_history GROUP BY tool`)
	if err != nil {
		return nil, fmt.Errorf("history: stats by tool: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tool string
		var n int
		if err := rows.Scan(&tool, &n); err != nil {
			continue
		}
		s.ByTool[tool] = n
	}
	return s, rows.Err()
}
