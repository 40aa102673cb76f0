package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/rotation"
)

// TemplateStore is the storage the template service needs.
type TemplateStore interface {
	authz.RoleLookup
	persistence.TemplateStore
	CreateShift(ctx context.Context, shift persistence.NewShift) (persistence.Shift, error)
}

// TemplateService coordinates rotation templates and their application.
type TemplateService struct {
	store  TemplateStore
	engine *rotation.Engine
	logger *slog.Logger
}

// NewTemplateService constructs a TemplateService backed by the provided store.
func NewTemplateService(store TemplateStore) *TemplateService {
	return NewTemplateServiceWithLogger(store, nil)
}

// NewTemplateServiceWithLogger constructs a TemplateService with a specified logger.
func NewTemplateServiceWithLogger(store TemplateStore, logger *slog.Logger) *TemplateService {
	return &TemplateService{store: store, engine: rotation.NewEngine(), logger: defaultLogger(logger)}
}

func (s *TemplateService) loggerWith(ctx context.Context, operation string, caller Caller, attrs ...any) *slog.Logger {
	attrs = append([]any{"caller_id", caller.UserID}, attrs...)
	return serviceLogger(ctx, s.logger, "TemplateService", operation, attrs...)
}

// Create stores a template. The definition is kept as given and only parsed
// when the template is applied.
func (s *TemplateService) Create(ctx context.Context, params CreateTemplateParams) (template persistence.RotationTemplate, err error) {
	name := strings.TrimSpace(params.Name)
	logger := s.loggerWith(ctx, "Create", params.Caller,
		"schedule_id", params.ScheduleID,
		"name", name,
	)
	defer func() {
		logOutcome(ctx, logger, err, "template created", "template_id", template.ID)
	}()

	if err = authz.RequireAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}
	if name == "" {
		err = badRequest("name is required")
		return
	}
	if len(params.Definition) == 0 || !json.Valid(params.Definition) {
		err = badRequest("definition is required")
		return
	}

	template, err = s.store.CreateTemplate(ctx, persistence.NewTemplate{
		ScheduleID: params.ScheduleID,
		Name:       name,
		Definition: params.Definition,
		CreatedBy:  params.Caller.UserID,
	})
	err = translate(err)
	return
}

// List returns the schedule's templates, newest first.
func (s *TemplateService) List(ctx context.Context, caller Caller, scheduleID uuid.UUID) (templates []persistence.RotationTemplate, err error) {
	logger := s.loggerWith(ctx, "List", caller, "schedule_id", scheduleID)
	defer func() {
		logOutcome(ctx, logger, err, "templates listed", "count", len(templates))
	}()

	if _, err = authz.RequireMemberOrAdmin(ctx, s.store, caller, scheduleID); err != nil {
		err = translate(err)
		return
	}
	templates, err = s.store.ListTemplates(ctx, scheduleID)
	err = translate(err)
	return
}

// Apply generates the template's shifts for the week starting at WeekStart.
//
// Every slot is expanded before anything is written, so a malformed slot
// creates no shifts. Inserts are not wrapped in a transaction: a storage
// failure part way through keeps the shifts already created. Applying the
// same template twice creates duplicates.
func (s *TemplateService) Apply(ctx context.Context, params ApplyTemplateParams) (created []persistence.Shift, err error) {
	logger := s.loggerWith(ctx, "Apply", params.Caller,
		"schedule_id", params.ScheduleID,
		"template_id", params.TemplateID,
		"week_start", params.WeekStart,
	)
	defer func() {
		logOutcome(ctx, logger, err, "template applied", "count", len(created))
	}()

	if err = authz.RequireAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}

	template, err := s.store.GetTemplate(ctx, params.TemplateID)
	if err != nil {
		err = translate(err)
		return
	}
	if template.ScheduleID != params.ScheduleID {
		err = ErrForbidden
		return
	}

	weekStart, err := rotation.ParseWeekStart(params.WeekStart)
	if err != nil {
		err = badRequest("week_start must be YYYY-MM-DD")
		return
	}
	def, err := rotation.ParseDefinition(template.Definition)
	if err != nil {
		err = badRequest("invalid template definition")
		return
	}

	planned, err := s.engine.Expand(def, weekStart, params.ScheduleID, params.Caller.UserID)
	if err != nil {
		var slotErr *rotation.SlotError
		if errors.As(err, &slotErr) {
			err = badRequest(slotErr.Message())
			return
		}
		err = badRequest(err.Error())
		return
	}

	created = make([]persistence.Shift, 0, len(planned))
	for _, plan := range planned {
		var shift persistence.Shift
		shift, err = s.store.CreateShift(ctx, plan)
		if err != nil {
			logger.WarnContext(ctx, "template application stopped part way", "inserted", len(created), "total", len(planned))
			created = nil
			err = translate(err)
			return
		}
		created = append(created, shift)
	}
	return
}
