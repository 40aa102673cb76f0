package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/persistence/sqlstore/migration"
)

// Dialect names the database/sql driver used by the store.
type Dialect string

const (
	// DialectSQLite uses modernc.org/sqlite.
	DialectSQLite Dialect = "sqlite"
	// DialectPgx uses github.com/jackc/pgx/v5/stdlib.
	DialectPgx Dialect = "pgx"
	// DialectPostgres uses github.com/lib/pq.
	DialectPostgres Dialect = "postgres"
)

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// ParseDialect validates a driver name.
func ParseDialect(value string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(value))); d {
	case DialectSQLite, DialectPgx, DialectPostgres:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want sqlite, pgx or postgres)", value)
	}
}

// DriverName is the name registered with database/sql.
func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) isPostgres() bool {
	return d == DialectPgx || d == DialectPostgres
}

func (d Dialect) migrationDir() string {
	if d.isPostgres() {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

func (d Dialect) bindStyle() migration.BindStyle {
	if d.isPostgres() {
		return migration.BindDollar
	}
	return migration.BindQuestion
}

// rebind rewrites ? placeholders to $n for Postgres. Queries in this package
// never contain a literal question mark.
func (d Dialect) rebind(query string) string {
	if !d.isPostgres() {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// timeArg converts t to the bound representation of a timestamp column.
func (d Dialect) timeArg(t time.Time) any {
	t = persistence.NormalizeTime(t)
	if d.isPostgres() {
		return t
	}
	return t.Format(sqliteTimeLayout)
}

// timeColumn scans timestamps stored as timestamptz or fixed-width text.
type timeColumn struct {
	dst *time.Time
}

func scanTime(dst *time.Time) timeColumn {
	return timeColumn{dst: dst}
}

func (c timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.dst = persistence.NormalizeTime(v)
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	case nil:
		return fmt.Errorf("sqlstore: NULL timestamp")
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into timestamp", src)
	}
}

func (c timeColumn) parse(value string) error {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return fmt.Errorf("sqlstore: parse timestamp %q: %w", value, err)
		}
	}
	*c.dst = persistence.NormalizeTime(t)
	return nil
}
