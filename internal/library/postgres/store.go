// Package postgres stores the download library in PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ytget/ryt/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	date_added TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_videos_date_added ON videos (date_added DESC);
`

// Store is a PostgreSQL-backed library.
type Store struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool. Close will close it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create videos table: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, url, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pool.Exec(ctx,
		"INSERT INTO videos (url, title) VALUES ($1, $2)", url, title); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.LibraryRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, url, title, date_added FROM videos ORDER BY date_added DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LibraryRecord, error) {
		var rec model.LibraryRecord
		err := row.Scan(&rec.ID, &rec.URL, &rec.Title, &rec.DateAdded)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan videos: %w", err)
	}
	for i := range records {
		records[i].DateAdded = records[i].DateAdded.UTC()
	}
	return records, nil
}

// Clear deletes every record inside one transaction.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM videos"); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback failed: %v (original err: %w)", rbErr, err)
		}
		return fmt.Errorf("clear videos: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
