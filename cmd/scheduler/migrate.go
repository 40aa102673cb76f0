package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/shift-scheduler/internal/persistence/sqlstore/migration"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print the schema status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("migration failed", "error", err)
				return err
			}
			defer store.Close()

			status, err := store.MigrationStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("read migration status: %w", err)
			}
			return printStatus(cmd.OutOrStdout(), status)
		},
	}
}

func printStatus(w io.Writer, status migration.Status) error {
	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	if _, err := fmt.Fprintf(w, "schema version: %s\n", current); err != nil {
		return err
	}
	for _, m := range status.Applied {
		if _, err := fmt.Fprintf(w, "  applied %s at %s (%s)\n", m.Version, m.AppliedAt.UTC().Format("2006-01-02T15:04:05Z"), m.ExecutionTime); err != nil {
			return err
		}
	}
	for _, m := range status.Pending {
		if _, err := fmt.Fprintf(w, "  pending %s %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}
