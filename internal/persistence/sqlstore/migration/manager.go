package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager applies pending migrations in version order.
type Manager struct {
	scanner  Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor. A nil logger falls back to slog.Default.
func NewManager(scanner Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration and returns the number applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	started := time.Now()

	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "database schema up to date")
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "pending", len(pending))
	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		logger.InfoContext(ctx, "executing migration", "position", i+1, "total", len(pending))

		migrationStart := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return i, newError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		elapsed := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return i, err
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	m.logger.InfoContext(ctx, "migrations completed", "applied", len(pending), "duration", time.Since(started))
	return len(pending), nil
}

// Pending returns the migrations not yet recorded in schema_migrations after
// validating the version sequence and the checksums of applied files.
func (m *Manager) Pending(ctx context.Context) ([]Migration, error) {
	available, applied, err := m.load(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedByVersion := make(map[int]AppliedMigration, len(applied))
	for _, row := range applied {
		appliedByVersion[versionNumber(row.Version)] = row
	}

	var pending []Migration
	for _, migration := range available {
		row, ok := appliedByVersion[versionNumber(migration.Version)]
		if !ok {
			pending = append(pending, migration)
			continue
		}
		if row.Checksum != "" && row.Checksum != migration.Checksum {
			return nil, newError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return pending, nil
}

// Status reports the current version plus applied and pending migrations.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	status := Status{Applied: applied, Pending: pending}
	highest := -1
	for _, row := range applied {
		if n := versionNumber(row.Version); n > highest {
			highest = n
			status.CurrentVersion = row.Version
		}
	}
	return status, nil
}

func (m *Manager) load(ctx context.Context) ([]Migration, []AppliedMigration, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, nil, err
	}
	available, err := m.scanner.ScanMigrations()
	if err != nil {
		return nil, nil, err
	}
	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return available, applied, nil
}

// validateSequence rejects gaps between available versions and applied
// versions that have no file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	known := make(map[int]bool, len(available))
	for i, migration := range available {
		n := versionNumber(migration.Version)
		known[n] = true
		if i > 0 && n != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version before %s", ErrVersionConflict, migration.Version)
		}
	}
	for _, row := range applied {
		if !known[versionNumber(row.Version)] {
			return fmt.Errorf("%w: applied migration %s has no file", ErrVersionConflict, row.Version)
		}
	}
	return nil
}
