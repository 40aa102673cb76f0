package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/application"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequestBody = errors.New("bad request: invalid JSON body")
	errMissingToken   = errors.New("unauthorized")
)

type errorResponse struct {
	Error string `json:"error"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError sends err's message verbatim; callers pass client-safe errors.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	r.loggerFor(ctx).DebugContext(ctx, "request rejected", "status", status, "error", err)
	r.writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(ctx, w, status, errorResponse{Error: application.PublicMessage(err)})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadRequestBody
	}
	return nil
}

// pathUUID parses the named path wildcard.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad request: invalid %s", name)
	}
	return id, nil
}
