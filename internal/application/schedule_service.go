package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
)

// ScheduleStore is the storage the schedule service needs.
type ScheduleStore interface {
	persistence.ScheduleStore
	FindUserByEmail(ctx context.Context, email string) (persistence.User, string, error)
}

// ScheduleService coordinates schedules and their memberships.
type ScheduleService struct {
	store  ScheduleStore
	logger *slog.Logger
}

// NewScheduleService constructs a ScheduleService backed by the provided store.
func NewScheduleService(store ScheduleStore) *ScheduleService {
	return NewScheduleServiceWithLogger(store, nil)
}

// NewScheduleServiceWithLogger constructs a ScheduleService with a specified logger.
func NewScheduleServiceWithLogger(store ScheduleStore, logger *slog.Logger) *ScheduleService {
	return &ScheduleService{store: store, logger: defaultLogger(logger)}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, caller Caller, attrs ...any) *slog.Logger {
	attrs = append([]any{"caller_id", caller.UserID}, attrs...)
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// List returns the caller's schedules with their role, newest first.
func (s *ScheduleService) List(ctx context.Context, caller Caller) (schedules []persistence.ScheduleWithRole, err error) {
	logger := s.loggerWith(ctx, "List", caller)
	defer func() {
		logOutcome(ctx, logger, err, "schedules listed", "count", len(schedules))
	}()

	schedules, err = s.store.ListSchedulesForUser(ctx, caller.UserID)
	err = translate(err)
	return
}

// Create records a schedule owned by the caller, who becomes its admin.
func (s *ScheduleService) Create(ctx context.Context, params CreateScheduleParams) (schedule persistence.Schedule, err error) {
	name := strings.TrimSpace(params.Name)
	logger := s.loggerWith(ctx, "Create", params.Caller, "name", name)
	defer func() {
		logOutcome(ctx, logger, err, "schedule created", "schedule_id", schedule.ID)
	}()

	if name == "" {
		err = badRequest("name is required")
		return
	}

	schedule, err = s.store.CreateSchedule(ctx, persistence.NewSchedule{
		Name:        name,
		SubjectType: strings.TrimSpace(params.SubjectType),
		SubjectName: strings.TrimSpace(params.SubjectName),
		CreatedBy:   params.Caller.UserID,
	})
	err = translate(err)
	return
}

// Get returns a schedule the caller belongs to.
func (s *ScheduleService) Get(ctx context.Context, caller Caller, scheduleID uuid.UUID) (schedule persistence.Schedule, err error) {
	logger := s.loggerWith(ctx, "Get", caller, "schedule_id", scheduleID)
	defer func() {
		logOutcome(ctx, logger, err, "schedule loaded")
	}()

	if _, err = authz.RequireMemberOrAdmin(ctx, s.store, caller, scheduleID); err != nil {
		err = translate(err)
		return
	}
	schedule, err = s.store.GetSchedule(ctx, scheduleID)
	err = translate(err)
	return
}

// ListMembers returns the schedule's members in the order they joined.
func (s *ScheduleService) ListMembers(ctx context.Context, caller Caller, scheduleID uuid.UUID) (members []persistence.Member, err error) {
	logger := s.loggerWith(ctx, "ListMembers", caller, "schedule_id", scheduleID)
	defer func() {
		logOutcome(ctx, logger, err, "members listed", "count", len(members))
	}()

	if _, err = authz.RequireMemberOrAdmin(ctx, s.store, caller, scheduleID); err != nil {
		err = translate(err)
		return
	}
	members, err = s.store.ListScheduleMembers(ctx, scheduleID)
	err = translate(err)
	return
}

// AddMember adds the account registered under the given email.
func (s *ScheduleService) AddMember(ctx context.Context, params AddMemberParams) (err error) {
	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "AddMember", params.Caller,
		"schedule_id", params.ScheduleID,
		"email", email,
		"role", params.Role,
	)
	defer func() {
		logOutcome(ctx, logger, err, "member added")
	}()

	if err = authz.RequireAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}
	if !params.Role.Valid() {
		err = badRequest("role must be admin or user")
		return
	}

	user, _, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, persistence.ErrNotFound) {
		err = badRequest("user email not found")
		return
	}
	if err != nil {
		err = translate(err)
		return
	}

	err = s.store.AddMember(ctx, params.ScheduleID, user.ID, params.Role)
	if errors.Is(err, persistence.ErrConflict) {
		err = &ConflictError{Message: "user already in schedule"}
		return
	}
	err = translate(err)
	return
}

// SetMemberRole changes the role of an existing member.
func (s *ScheduleService) SetMemberRole(ctx context.Context, params SetMemberRoleParams) (err error) {
	logger := s.loggerWith(ctx, "SetMemberRole", params.Caller,
		"schedule_id", params.ScheduleID,
		"user_id", params.UserID,
		"role", params.Role,
	)
	defer func() {
		logOutcome(ctx, logger, err, "member role changed")
	}()

	if err = authz.RequireAdmin(ctx, s.store, params.Caller, params.ScheduleID); err != nil {
		err = translate(err)
		return
	}
	if !params.Role.Valid() {
		err = badRequest("role must be admin or user")
		return
	}

	err = translate(s.store.SetMemberRole(ctx, params.ScheduleID, params.UserID, params.Role))
	return
}
