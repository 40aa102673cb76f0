package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
)

// ShiftStore is the storage the shift service needs.
type ShiftStore interface {
	authz.RoleLookup
	persistence.ShiftStore
}

// ShiftService coordinates shifts, their assignment and their comments.
type ShiftService struct {
	store  ShiftStore
	logger *slog.Logger
}

// NewShiftService constructs a ShiftService backed by the provided store.
func NewShiftService(store ShiftStore) *ShiftService {
	return NewShiftServiceWithLogger(store, nil)
}

// NewShiftServiceWithLogger constructs a ShiftService with a specified logger.
func NewShiftServiceWithLogger(store ShiftStore, logger *slog.Logger) *ShiftService {
	return &ShiftService{store: store, logger: defaultLogger(logger)}
}

func (s *ShiftService) loggerWith(ctx context.Context, operation string, caller Caller, attrs ...any) *slog.Logger {
	attrs = append([]any{"caller_id", caller.UserID}, attrs...)
	return serviceLogger(ctx, s.logger, "ShiftService", operation, attrs...)
}

// Create adds an unassigned shift. The period is a label only; it is not
// checked against the times, and neither is the order of start and end.
func (s *ShiftService) Create(ctx context.Context, params CreateShiftParams) (shift persistence.Shift, err error) {
	logger := s.loggerWith(ctx, "Create", params.Caller,
		"schedule_id", params.ScheduleID,
		"period", params.Period,
	)
	defer func() {
		logOutcome(ctx, logger, err, "shift created", "shift_id", shift.ID)
	}()

	if err = authz.RequireAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}
	if !params.Period.Valid() {
		err = badRequest("period must be morning, afternoon, night or sleep")
		return
	}

	shift, err = s.store.CreateShift(ctx, persistence.NewShift{
		ScheduleID: params.ScheduleID,
		StartsAt:   params.StartsAt,
		EndsAt:     params.EndsAt,
		Period:     params.Period,
		CreatedBy:  params.Caller.UserID,
	})
	err = translate(err)
	return
}

// List returns the shifts starting within [From, To), earliest first.
func (s *ShiftService) List(ctx context.Context, params ListShiftsParams) (shifts []persistence.Shift, err error) {
	logger := s.loggerWith(ctx, "List", params.Caller,
		"schedule_id", params.ScheduleID,
		"from", params.From,
		"to", params.To,
	)
	defer func() {
		logOutcome(ctx, logger, err, "shifts listed", "count", len(shifts))
	}()

	if _, err = authz.RequireMemberOrAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}

	from, perr := time.Parse(time.RFC3339, params.From)
	if perr != nil {
		err = badRequest("invalid from (RFC3339 required)")
		return
	}
	to, perr := time.Parse(time.RFC3339, params.To)
	if perr != nil {
		err = badRequest("invalid to (RFC3339 required)")
		return
	}

	shifts, err = s.store.ListShifts(ctx, params.ScheduleID, from.UTC(), to.UTC())
	err = translate(err)
	return
}

// Assign gives the shift to the requested user, or to the caller when none
// is named. Members may only take shifts themselves.
func (s *ShiftService) Assign(ctx context.Context, params AssignShiftParams) (err error) {
	target := params.Caller.UserID
	if params.UserID != nil {
		target = *params.UserID
	}
	logger := s.loggerWith(ctx, "Assign", params.Caller,
		"shift_id", params.ShiftID,
		"assignee_id", target,
	)
	defer func() {
		logOutcome(ctx, logger, err, "shift assigned")
	}()

	shift, err := s.store.GetShift(ctx, params.ShiftID)
	if err != nil {
		err = translate(err)
		return
	}
	role, err := authz.RequireMemberOrAdmin(ctx, s.store, params.Caller, shift.ScheduleID)
	if err != nil {
		err = translate(err)
		return
	}
	if err = authz.AuthorizeAssignment(params.Caller, role, target); err != nil {
		err = translate(err)
		return
	}

	err = translate(s.store.AssignShift(ctx, shift.ID, uuid.NullUUID{UUID: target, Valid: true}))
	return
}

// AddComment records a note on a shift. Only admins and the current
// assignee may comment.
func (s *ShiftService) AddComment(ctx context.Context, params AddCommentParams) (comment persistence.ShiftComment, err error) {
	logger := s.loggerWith(ctx, "AddComment", params.Caller, "shift_id", params.ShiftID)
	defer func() {
		logOutcome(ctx, logger, err, "comment added", "comment_id", comment.ID)
	}()

	shift, err := s.store.GetShift(ctx, params.ShiftID)
	if err != nil {
		err = translate(err)
		return
	}
	role, err := authz.RequireMemberOrAdmin(ctx, s.store, params.Caller, shift.ScheduleID)
	if err != nil {
		err = translate(err)
		return
	}
	if err = authz.AuthorizeComment(params.Caller, role, shift); err != nil {
		err = translate(err)
		return
	}

	body := strings.TrimSpace(params.Body)
	if body == "" {
		err = badRequest("comment body is required")
		return
	}

	comment, err = s.store.AddShiftComment(ctx, persistence.NewShiftComment{
		ShiftID: shift.ID,
		UserID:  params.Caller.UserID,
		Body:    body,
	})
	err = translate(err)
	return
}

// ListComments returns a shift's comments, oldest first, to any member of
// its schedule.
func (s *ShiftService) ListComments(ctx context.Context, caller Caller, shiftID uuid.UUID) (comments []persistence.ShiftComment, err error) {
	logger := s.loggerWith(ctx, "ListComments", caller, "shift_id", shiftID)
	defer func() {
		logOutcome(ctx, logger, err, "comments listed", "count", len(comments))
	}()

	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		err = translate(err)
		return
	}
	if _, err = authz.RequireMemberOrAdmin(ctx, s.store, caller, shift.ScheduleID); err != nil {
		err = translate(err)
		return
	}

	comments, err = s.store.ListShiftComments(ctx, shift.ID)
	err = translate(err)
	return
}
