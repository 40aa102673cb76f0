package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config describes how to reach the database.
type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns pool settings suited to the dialect.
func DefaultConfig(dialect Dialect, dsn string) Config {
	cfg := Config{
		Dialect:         dialect,
		DSN:             dsn,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
	if dialect == DialectSQLite {
		// one writer at a time; also keeps in-memory databases on a single connection
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}
	return cfg
}

var sqlitePragmas = []struct{ name, value string }{
	{"foreign_keys", "1"},
	{"busy_timeout", "5000"},
	{"journal_mode", "WAL"},
}

// sqliteDSN appends the connection pragmas the store relies on unless the
// caller already set them.
func sqliteDSN(dsn string) string {
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	inMemory := strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	for _, p := range sqlitePragmas {
		if strings.Contains(dsn, "_pragma="+p.name) {
			continue
		}
		if p.name == "journal_mode" && inMemory {
			continue
		}
		fmt.Fprintf(&b, "%s_pragma=%s(%s)", sep, p.name, p.value)
		sep = "&"
	}
	return b.String()
}

func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN
	if cfg.Dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(cfg.Dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Dialect, err)
	}
	return db, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTransaction runs fn inside a transaction, rolling back on error or panic.
func withTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
