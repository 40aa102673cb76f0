package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
)

type scheduleService interface {
	List(ctx context.Context, caller application.Caller) ([]persistence.ScheduleWithRole, error)
	Create(ctx context.Context, params application.CreateScheduleParams) (persistence.Schedule, error)
	Get(ctx context.Context, caller application.Caller, scheduleID uuid.UUID) (persistence.Schedule, error)
	ListMembers(ctx context.Context, caller application.Caller, scheduleID uuid.UUID) ([]persistence.Member, error)
	AddMember(ctx context.Context, params application.AddMemberParams) error
	SetMemberRole(ctx context.Context, params application.SetMemberRoleParams) error
}

// ScheduleHandler serves schedules and memberships.
type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

type scheduleRequest struct {
	Name        string `json:"name"`
	SubjectType string `json:"subject_type"`
	SubjectName string `json:"subject_name"`
}

type addMemberRequest struct {
	Email string                   `json:"email"`
	Role  persistence.ScheduleRole `json:"role"`
}

type setRoleRequest struct {
	Role persistence.ScheduleRole `json:"role"`
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	schedules, err := h.service.List(r.Context(), caller)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	schedule, err := h.service.Create(r.Context(), application.CreateScheduleParams{
		Caller:      caller,
		Name:        req.Name,
		SubjectType: req.SubjectType,
		SubjectName: req.SubjectName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, schedule)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	schedule, err := h.service.Get(r.Context(), caller, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	members, err := h.service.ListMembers(r.Context(), caller, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, members)
}

func (h *ScheduleHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	err = h.service.AddMember(r.Context(), application.AddMemberParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		Email:      req.Email,
		Role:       req.Role,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	userID, err := pathUUID(r, "user_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req setRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	err = h.service.SetMemberRole(r.Context(), application.SetMemberRoleParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		UserID:     userID,
		Role:       req.Role,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
