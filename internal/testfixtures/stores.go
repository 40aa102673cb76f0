package testfixtures

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/persistence/memory"
	"github.com/example/shift-scheduler/internal/persistence/sqlstore"
)

// PostgresURLEnv names the variable holding a Postgres URL for integration
// tests. Postgres-backed harnesses skip when it is unset.
const PostgresURLEnv = "SHIFT_SCHEDULER_TEST_POSTGRES_URL"

// StoreFactory builds an empty store for one test.
type StoreFactory func(tb testing.TB, opts ...persistence.Option) persistence.Store

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(tb testing.TB, opts ...persistence.Option) persistence.Store {
	tb.Helper()
	store := memory.New(opts...)
	tb.Cleanup(func() { _ = store.Close() })
	return store
}

// NewSQLiteStore returns a migrated store backed by a temporary SQLite file.
func NewSQLiteStore(tb testing.TB, opts ...persistence.Option) persistence.Store {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "scheduler.db")
	return openMigrated(tb, sqlstore.DefaultConfig(sqlstore.DialectSQLite, "file:"+path), opts...)
}

// PostgresFactory returns a factory that opens each store in a fresh schema
// using the given driver.
func PostgresFactory(dialect sqlstore.Dialect) StoreFactory {
	return func(tb testing.TB, opts ...persistence.Option) persistence.Store {
		tb.Helper()
		baseURL := os.Getenv(PostgresURLEnv)
		if baseURL == "" {
			tb.Skipf("%s not set", PostgresURLEnv)
		}

		schema := "shift_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		admin, err := sql.Open(dialect.DriverName(), baseURL)
		if err != nil {
			tb.Fatalf("open postgres: %v", err)
		}
		tb.Cleanup(func() { _ = admin.Close() })
		if _, err := admin.ExecContext(context.Background(), "CREATE SCHEMA "+schema); err != nil {
			tb.Fatalf("create schema: %v", err)
		}
		tb.Cleanup(func() {
			_, _ = admin.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		})

		return openMigrated(tb, sqlstore.DefaultConfig(dialect, withSearchPath(baseURL, schema)), opts...)
	}
}

func openMigrated(tb testing.TB, cfg sqlstore.Config, opts ...persistence.Option) persistence.Store {
	tb.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, cfg, opts...)
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	// cleanups run last-in first-out, so this closes before any schema drop
	tb.Cleanup(func() { _ = store.Close() })

	if _, err := store.Migrate(ctx, DiscardLogger()); err != nil {
		tb.Fatalf("migrate store: %v", err)
	}
	return store
}

func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%ssearch_path=%s", dsn, sep, schema)
	}
	return fmt.Sprintf("%s search_path=%s", dsn, schema)
}
