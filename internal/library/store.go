// Package library persists completed downloads. Backends live in the sqlite
// and postgres subpackages; Open picks one from a DSN.
package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/ytget/ryt/internal/library/postgres"
	"github.com/ytget/ryt/internal/library/sqlite"
	"github.com/ytget/ryt/internal/model"
)

// Store is the durable index of completed downloads.
// Implementations serialize their own writes so Clear never interleaves with Insert.
type Store interface {
	// Init creates the underlying storage if absent. Safe to call repeatedly.
	Init(ctx context.Context) error
	// Insert appends one record; the store assigns its id and timestamp.
	Insert(ctx context.Context, url, title string) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]model.LibraryRecord, error)
	// Clear deletes every record atomically.
	Clear(ctx context.Context) error
	Close() error
}

// DSN schemes
const (
	SchemeSQLite     = "sqlite:"
	SchemePostgres   = "postgres://"
	SchemePostgreSQL = "postgresql://"
)

// Open returns the backend selected by dsn. Postgres URLs use pgx; "sqlite:"
// prefixed or bare paths use an on-disk sqlite file.
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("library dsn is empty")
	}

	switch {
	case strings.HasPrefix(dsn, SchemePostgres), strings.HasPrefix(dsn, SchemePostgreSQL):
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres library: %w", err)
		}
		return store, nil
	default:
		path := strings.TrimPrefix(dsn, SchemeSQLite)
		path = strings.TrimPrefix(path, "//")
		if path == "" {
			return nil, fmt.Errorf("sqlite library path is empty")
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite library: %w", err)
		}
		return store, nil
	}
}
