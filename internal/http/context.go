package http

import (
	"context"
	"log/slog"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/logging"
)

type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller returns a derived context containing the authenticated caller.
func ContextWithCaller(ctx context.Context, caller application.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext extracts the authenticated caller from context if available.
func CallerFromContext(ctx context.Context) (application.Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(application.Caller)
	return caller, ok
}

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
