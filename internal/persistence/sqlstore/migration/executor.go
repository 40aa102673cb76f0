package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BindStyle selects the positional placeholder syntax of the target database.
type BindStyle int

const (
	// BindQuestion uses ? placeholders (SQLite).
	BindQuestion BindStyle = iota
	// BindDollar uses $1, $2, ... placeholders (PostgreSQL).
	BindDollar
)

// SQLExecutor runs migrations through database/sql.
type SQLExecutor struct {
	db   *sql.DB
	bind BindStyle
}

// NewSQLExecutor returns an executor for db using the given placeholder style.
func NewSQLExecutor(db *sql.DB, bind BindStyle) *SQLExecutor {
	return &SQLExecutor{db: db, bind: bind}
}

// InitializeVersionTable creates schema_migrations if it does not exist.
func (e *SQLExecutor) InitializeVersionTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		execution_time_ms BIGINT NOT NULL DEFAULT 0
	)`
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return newError("", "schema_migrations", "create version table", err)
	}
	return nil
}

// ExecuteMigration runs every statement of migration inside one transaction.
func (e *SQLExecutor) ExecuteMigration(ctx context.Context, migration Migration) (err error) {
	statements := SplitStatements(migration.SQL)
	if len(statements) == 0 {
		return newError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(migration.Version, migration.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return newError(migration.Version, migration.FilePath,
				fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return newError(migration.Version, migration.FilePath, "commit transaction", err)
	}
	return nil
}

// RecordMigration stores a successfully applied migration.
func (e *SQLExecutor) RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error {
	query := e.rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	_, err := e.db.ExecContext(ctx, query,
		migration.Version,
		time.Now().UTC().Format(time.RFC3339),
		migration.Checksum,
		executionTime.Milliseconds(),
	)
	if err != nil {
		return newError(migration.Version, migration.FilePath, "record migration", err)
	}
	return nil
}

// AppliedMigrations lists applied migrations in ascending version order.
func (e *SQLExecutor) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, newError("", "schema_migrations", "query applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			row       AppliedMigration
			appliedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&row.Version, &appliedAt, &row.Checksum, &elapsedMS); err != nil {
			return nil, newError("", "schema_migrations", "scan applied version", err)
		}
		if row.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, newError(row.Version, "schema_migrations", "parse applied_at", err)
		}
		row.ExecutionTime = time.Duration(elapsedMS) * time.Millisecond
		applied = append(applied, row)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("", "schema_migrations", "iterate applied versions", err)
	}
	return applied, nil
}

func (e *SQLExecutor) rebind(query string) string {
	if e.bind != BindDollar {
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
