package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
)

type userService interface {
	Me(ctx context.Context, caller application.Caller) (persistence.User, error)
}

// UserHandler serves the caller's own account.
type UserHandler struct {
	service   userService
	responder responder
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(logger)}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	user, err := h.service.Me(r.Context(), caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, user)
}
