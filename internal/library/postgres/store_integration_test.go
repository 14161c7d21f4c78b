//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDSN string

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not construct docker pool: %v\n", err)
		os.Exit(1)
	}
	pool.MaxWait = 2 * time.Minute

	resource, err := pool.Run("postgres", "16-alpine", []string{
		"POSTGRES_USER=ryt",
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_DB=ryt",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not start postgres: %v\n", err)
		os.Exit(1)
	}
	_ = resource.Expire(300)

	testDSN = fmt.Sprintf("postgres://ryt:secret@%s/ryt?sslmode=disable", resource.GetHostPort("5432/tcp"))
	if err := pool.Retry(func() error {
		store, err := Open(context.Background(), testDSN)
		if err != nil {
			return err
		}
		return store.Close()
	}); err != nil {
		_ = pool.Purge(resource)
		fmt.Fprintf(os.Stderr, "postgres never became ready: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = pool.Purge(resource)
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, testDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Clear(ctx))
	return store
}

func TestStore_InsertListClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Insert(ctx, "https://example.com/a", "A"))
	require.NoError(t, store.Insert(ctx, "https://example.com/a", "A again"))
	require.NoError(t, store.Insert(ctx, "https://example.com/b", "B"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "B", records[0].Title)
	assert.Equal(t, "A", records[2].Title)
	assert.Equal(t, time.UTC, records[0].DateAdded.Location())

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	records, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
