// Package history persists analysis results per user in SQLite or PostgreSQL.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/foodguard/internal/model"
)

// DefaultLimit is the number of entries Recent returns when no limit is given
const DefaultLimit = 20

// ErrDisabled is returned by New when history storage is turned off
var ErrDisabled = errors.New("history storage disabled")

// Store records analyses and answers history queries
type Store interface {
	Save(ctx context.Context, entry model.HistoryEntry) error
	Recent(ctx context.Context, username string, limit int) ([]model.HistoryEntry, error)
	Stats(ctx context.Context, username string) (model.HistoryStats, error)
	Close() error
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		barcode TEXT NOT NULL,
		product_name TEXT NOT NULL,
		status TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_username_created ON history(username, created_at)`,
}

// SQLStore is a Store over database/sql. Both backends share one schema.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// New opens the store selected by cfg: PostgreSQL when a database URL is set,
// otherwise a local SQLite file
func New(cfg model.StorageConfig) (*SQLStore, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		return OpenPostgres(cfg.DatabaseURL)
	}
	return OpenSQLite(cfg.SQLitePath)
}

// OpenSQLite opens (creating if needed) a SQLite history database
func OpenSQLite(path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	return open(db, dialectSQLite)
}

// OpenPostgres connects to a PostgreSQL history database
func OpenPostgres(databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	return open(db, dialectPostgres)
}

func open(db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migration: %w", err)
		}
	}
	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// Save inserts an entry. Missing id and timestamp are filled in.
func (s *SQLStore) Save(ctx context.Context, entry model.HistoryEntry) error {
	if strings.TrimSpace(entry.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO history (id, username, barcode, product_name, status, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.Username, entry.Barcode, entry.ProductName, string(entry.Status), entry.Score,
		entry.Timestamp.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Recent returns the user's latest entries, newest first
func (s *SQLStore) Recent(ctx context.Context, username string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, username, barcode, product_name, status, score, created_at
		FROM history WHERE username = ? ORDER BY created_at DESC, id DESC LIMIT ?`),
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var (
			e       model.HistoryEntry
			status  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Username, &e.Barcode, &e.ProductName, &status, &e.Score, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = model.Status(status)
		e.Timestamp = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}

// Stats aggregates the user's whole history. Average is truncated to an integer.
func (s *SQLStore) Stats(ctx context.Context, username string) (model.HistoryStats, error) {
	var total, sum, safe, warning int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*),
			COALESCE(SUM(score), 0),
			COALESCE(SUM(CASE WHEN status = 'SAFE' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'WARNING' THEN 1 ELSE 0 END), 0)
		FROM history WHERE username = ?`),
		username,
	).Scan(&total, &sum, &safe, &warning)
	if err != nil {
		return model.HistoryStats{}, fmt.Errorf("query stats: %w", err)
	}

	stats := model.HistoryStats{
		Total:   int(total),
		Safe:    int(safe),
		Warning: int(warning),
	}
	if total > 0 {
		stats.Average = int(sum / total)
	}
	return stats, nil
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
