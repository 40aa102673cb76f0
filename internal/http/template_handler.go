package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
)

type templateService interface {
	Create(ctx context.Context, params application.CreateTemplateParams) (persistence.RotationTemplate, error)
	List(ctx context.Context, caller application.Caller, scheduleID uuid.UUID) ([]persistence.RotationTemplate, error)
	Apply(ctx context.Context, params application.ApplyTemplateParams) ([]persistence.Shift, error)
}

// TemplateHandler serves rotation templates.
type TemplateHandler struct {
	service   templateService
	responder responder
	logger    *slog.Logger
}

func NewTemplateHandler(service templateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

type templateRequest struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
}

type applyRequest struct {
	WeekStart string `json:"week_start"`
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	template, err := h.service.Create(r.Context(), application.CreateTemplateParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		Name:       req.Name,
		Definition: req.Definition,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, template)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	templates, err := h.service.List(r.Context(), caller, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, templates)
}

func (h *TemplateHandler) Apply(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathUUID(r, "schedule_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	templateID, err := pathUUID(r, "template_id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	caller, _ := CallerFromContext(r.Context())
	shifts, err := h.service.Apply(r.Context(), application.ApplyTemplateParams{
		Caller:     caller,
		ScheduleID: scheduleID,
		TemplateID: templateID,
		WeekStart:  req.WeekStart,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	routeLogger(r, h.logger, "TemplateHandler", "Apply",
		"template_id", templateID,
		"created", len(shifts),
	).DebugContext(r.Context(), "template applied")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shifts)
}
