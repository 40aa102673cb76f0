package http

import (
	"log/slog"
	"net/http"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// routeLogger scopes the request logger to one handler operation and the
// route pattern the mux matched.
func routeLogger(r *http.Request, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(r.Context())
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handler, "operation", operation)
	if r.Pattern != "" {
		pairs = append(pairs, "route", r.Pattern)
	}
	return logger.With(append(pairs, attrs...)...)
}
