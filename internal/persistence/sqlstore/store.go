// Package sqlstore implements persistence.Store over database/sql for SQLite
// (modernc.org/sqlite) and PostgreSQL (pgx or lib/pq).
//
// All identifiers and creation timestamps are generated in Go so that the
// relational and in-memory adapters produce identical records. Timestamps are
// held at microsecond precision in UTC.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/persistence/sqlstore/migration"
)

//go:embed migrations
var migrationFiles embed.FS

// Store is the relational adapter.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() uuid.UUID
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by cfg. The schema is not touched;
// call Migrate before first use.
func Open(ctx context.Context, cfg Config, opts ...persistence.Option) (*Store, error) {
	if _, err := ParseDialect(string(cfg.Dialect)); err != nil {
		return nil, err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newStore(db, cfg.Dialect, opts...), nil
}

func newStore(db *sql.DB, dialect Dialect, opts ...persistence.Option) *Store {
	resolved := persistence.ResolveOptions(opts...)
	return &Store{db: db, dialect: dialect, now: resolved.Now, newID: resolved.NewID}
}

// Migrate applies pending schema migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) (int, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, s.dialect.migrationDir()),
		migration.NewSQLExecutor(s.db, s.dialect.bindStyle()),
		logger,
	)
	return manager.Run(ctx)
}

// MigrationStatus reports applied and pending migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, s.dialect.migrationDir()),
		migration.NewSQLExecutor(s.db, s.dialect.bindStyle()),
		nil,
	)
	return manager.Status(ctx)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return persistence.NormalizeTime(s.now())
}

func (s *Store) exec(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q querier, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// execAffecting runs an update and reports ErrNotFound when no row matched.
func (s *Store) execAffecting(ctx context.Context, op, query string, args ...any) error {
	result, err := s.exec(ctx, s.db, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewStorageError(op, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
