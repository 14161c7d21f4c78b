// Package sqlite stores the download library in a local sqlite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ytget/ryt/internal/model"
)

// TimeLayout is fixed width and UTC so lexical order matches time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	date_added TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_date_added ON videos (date_added DESC);
`

// Store is a sqlite-backed library.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex // serializes Insert and Clear
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the timestamp source used for date_added
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the sqlite file at path.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create library dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps writes ordered and avoids SQLITE_BUSY between our own statements.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init creates the videos table if absent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create videos table: %w", err)
	}
	return nil
}

// Insert appends a record stamped with the store clock.
func (s *Store) Insert(ctx context.Context, url, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.now().UTC().Format(TimeLayout)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO videos (url, title, date_added) VALUES (?, ?, ?)",
		url, title, added,
	); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// List returns all records ordered by date_added, newest first.
func (s *Store) List(ctx context.Context) ([]model.LibraryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, url, title, date_added FROM videos ORDER BY date_added DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	records := make([]model.LibraryRecord, 0)
	for rows.Next() {
		var (
			rec   model.LibraryRecord
			added string
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Title, &added); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		rec.DateAdded, err = time.Parse(TimeLayout, added)
		if err != nil {
			return nil, fmt.Errorf("parse date_added %q: %w", added, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return records, nil
}

// Clear deletes every record in a single transaction.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM videos"); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return fmt.Errorf("clear videos: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
