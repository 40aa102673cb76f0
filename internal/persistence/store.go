package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore holds accounts and their credential hashes.
type UserStore interface {
	CountUsers(ctx context.Context) (int64, error)
	// CreateUser fails with ErrConflict when the (already normalized) email exists.
	CreateUser(ctx context.Context, user NewUser) (User, error)
	// FindUserByEmail returns the user and its credential hash.
	FindUserByEmail(ctx context.Context, email string) (User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
}

// ScheduleStore holds schedules and their memberships.
type ScheduleStore interface {
	// CreateSchedule records the schedule and an admin membership for its
	// creator as one unit.
	CreateSchedule(ctx context.Context, schedule NewSchedule) (Schedule, error)
	// ListSchedulesForUser orders by schedule creation time, newest first.
	ListSchedulesForUser(ctx context.Context, userID uuid.UUID) ([]ScheduleWithRole, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (Schedule, error)
	GetScheduleRole(ctx context.Context, scheduleID, userID uuid.UUID) (ScheduleRole, error)
	// ListScheduleMembers orders by membership creation time, oldest first.
	ListScheduleMembers(ctx context.Context, scheduleID uuid.UUID) ([]Member, error)
	// AddMember fails with ErrConflict when the pair already has a membership.
	AddMember(ctx context.Context, scheduleID, userID uuid.UUID, role ScheduleRole) error
	// SetMemberRole fails with ErrNotFound when the pair has no membership.
	SetMemberRole(ctx context.Context, scheduleID, userID uuid.UUID, role ScheduleRole) error
}

// ShiftStore holds shifts and their comments.
type ShiftStore interface {
	CreateShift(ctx context.Context, shift NewShift) (Shift, error)
	// ListShifts returns shifts with from <= StartsAt < to ordered by StartsAt.
	ListShifts(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]Shift, error)
	GetShift(ctx context.Context, id uuid.UUID) (Shift, error)
	// AssignShift sets or clears the assignee; ErrNotFound when the shift is absent.
	AssignShift(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) error
	AddShiftComment(ctx context.Context, comment NewShiftComment) (ShiftComment, error)
	// ListShiftComments orders by creation time, oldest first.
	ListShiftComments(ctx context.Context, shiftID uuid.UUID) ([]ShiftComment, error)
}

// TemplateStore holds rotation templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, template NewTemplate) (RotationTemplate, error)
	// ListTemplates orders by creation time, newest first.
	ListTemplates(ctx context.Context, scheduleID uuid.UUID) ([]RotationTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (RotationTemplate, error)
}

// Store is the full storage port. The in-memory and relational adapters both
// satisfy it with identical error kinds and ordering.
type Store interface {
	UserStore
	ScheduleStore
	ShiftStore
	TemplateStore
	Close() error
}
