// Command scheduler runs the shift scheduling API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/shift-scheduler/internal/config"
	"github.com/example/shift-scheduler/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configFile string
	envFile    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "scheduler",
		Short: "Shift scheduling API server",
		Long: `Multi-tenant shift scheduling backend.

Configuration is read from the environment (JWT_SECRET, DATABASE_DRIVER,
DATABASE_URL, BIND_ADDR, CORS_ORIGIN, STATIC_DIR, LOG_LEVEL, LOG_FORMAT,
SHUTDOWN_TIMEOUT), a .env file and an optional config file.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "optional config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newVersionCommand(),
	)
	return root
}

// load resolves configuration and the process logger for a subcommand.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return cfg, logger, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "scheduler %s\n", version)
			return err
		},
	}
}
