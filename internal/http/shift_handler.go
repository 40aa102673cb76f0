package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
)

var errShiftTimesRequired = errors.New("bad request: starts_at and ends_at are required")

type shiftService interface {
	Create(ctx context.Context, params application.CreateShiftParams) (persistence.Shift, error)
	List(ctx context.Context, params application.ListShiftsParams) ([]persistence.Shift, error)
	Assign(ctx context.Context, params application.AssignShiftParams) error
	AddComment(ctx context.Context, params application.AddCommentParams) (persistence.ShiftComment, error)
	ListComments(ctx context.Context, caller application.Caller, shiftID uuid.UUID) ([]persistence.ShiftComment, error)
}

// ShiftHandler serves shifts, assignment and comments.
type ShiftHandler struct {
	service   shiftService
	responder responder
}

func NewShiftHandler(service shiftService, logger *slog.Logger) *ShiftHandler {
	return &ShiftHandler{service: service, responder: newResponder(logger)}
}

type shiftRequest struct {
	StartsAt *time.Time         `json:"starts_at"`
	EndsAt   *time.Time         `json:"ends_at"`
	Period   persistence.Period `json:"period"`
}

type assignRequest struct {
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req shiftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	if req.StartsAt == nil || req.EndsAt == nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errShiftTimesRequired)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	shift, err := h.service.Create(r.Context(), application.CreateShiftParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		StartsAt:   *req.StartsAt,
		EndsAt:     *req.EndsAt,
		Period:     req.Period,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shift)
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	query := r.URL.Query()
	caller, _ := CallerFromContext(r.Context())
	shifts, err := h.service.List(r.Context(), application.ListShiftsParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		From:       query.Get("from"),
		To:         query.Get("to"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shifts)
}

func (h *ShiftHandler) Assign(w http.ResponseWriter, r *http.Request) {
	shiftID, err := pathUUID(r, "shift_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	err = h.service.Assign(r.Context(), application.AssignShiftParams{
		Caller:  caller,
		ShiftID: shiftID,
		UserID:  req.AssignedUserID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ShiftHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	shiftID, err := pathUUID(r, "shift_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	comment, err := h.service.AddComment(r.Context(), application.AddCommentParams{
		Caller:  caller,
		ShiftID: shiftID,
		Body:    req.Body,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, comment)
}

func (h *ShiftHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	shiftID, err := pathUUID(r, "shift_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	comments, err := h.service.ListComments(r.Context(), caller, shiftID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, comments)
}
