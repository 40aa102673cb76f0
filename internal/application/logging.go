package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/shift-scheduler/internal/logging"
	"github.com/example/shift-scheduler/internal/persistence"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// logOutcome records the result of a service operation. Client errors are
// logged at warn level, internal failures at error level with their cause.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, success, attrs...)
		return
	}

	kind := ErrorKind(err)
	if kind != "internal" {
		logger.WarnContext(ctx, success+" rejected", "error", err, "error_kind", kind)
		return
	}

	pairs := []any{"error", err, "error_kind", kind}
	var storageErr *persistence.StorageError
	if errors.As(err, &storageErr) && storageErr.Cause() != nil {
		pairs = append(pairs, "cause", storageErr.Cause().Error())
	}
	logger.ErrorContext(ctx, success+" failed", pairs...)
}

// ErrorKind maps classified errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "internal"
}
