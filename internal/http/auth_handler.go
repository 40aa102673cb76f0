package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/shift-scheduler/internal/application"
)

type authService interface {
	Register(ctx context.Context, creds application.Credentials) (string, error)
	Login(ctx context.Context, creds application.Credentials) (string, error)
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	service   authService
	responder responder
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, responder: newResponder(logger)}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.Register)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.service.Login)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, op func(context.Context, application.Credentials) (string, error)) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	token, err := op(r.Context(), application.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{Token: token})
}
