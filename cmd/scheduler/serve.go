package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/config"
	httptransport "github.com/example/shift-scheduler/internal/http"
	"github.com/example/shift-scheduler/internal/persistence/sqlstore"
	"github.com/example/shift-scheduler/internal/token"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply pending migrations and serve the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			srv, err := newServer(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to start", "error", err)
				return err
			}
			defer srv.close()

			listener, err := net.Listen("tcp", cfg.BindAddr)
			if err != nil {
				logger.Error("failed to listen", "addr", cfg.BindAddr, "error", err)
				return err
			}
			return srv.run(ctx, listener)
		},
	}
}

// openStore connects to the configured database and brings its schema up to
// date.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	dialect, err := sqlstore.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	store, err := sqlstore.Open(ctx, sqlstore.DefaultConfig(dialect, cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applied, err := store.Migrate(ctx, logger)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database ready", "driver", dialect, "migrations_applied", applied)
	return store, nil
}

type server struct {
	store           *sqlstore.Store
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*server, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	authService := application.NewAuthServiceWithLogger(store, nil, issuer, logger)
	userService := application.NewUserServiceWithLogger(store, logger)
	scheduleService := application.NewScheduleServiceWithLogger(store, logger)
	shiftService := application.NewShiftServiceWithLogger(store, logger)
	templateService := application.NewTemplateServiceWithLogger(store, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Schedules:     httptransport.NewScheduleHandler(scheduleService, logger),
		Shifts:        httptransport.NewShiftHandler(shiftService, logger),
		Templates:     httptransport.NewTemplateHandler(templateService, logger),
		Authenticator: authService,
		StaticDir:     cfg.StaticDir,
		CORSOrigin:    cfg.CORSOrigin,
		Logger:        logger,
	})

	return &server{
		store:           store,
		handler:         handler,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// run serves on listener until ctx is cancelled, then drains in-flight
// requests for at most the shutdown timeout.
func (s *server) run(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("scheduler API listening", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("server stopped with error", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *server) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close storage", "error", err)
	}
}
