package application

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/authz"
	"github.com/example/shift-scheduler/internal/persistence"
)

// Caller is the authenticated user invoking a service method.
type Caller = authz.Caller

// MinPasswordLength is the shortest password accepted at registration, in bytes.
const MinPasswordLength = 8

// Credentials carries the email and password of a register or login request.
type Credentials struct {
	Email    string
	Password string
}

// CreateScheduleParams wraps the fields of a new schedule.
type CreateScheduleParams struct {
	Caller      Caller
	Name        string
	SubjectType string
	SubjectName string
}

// AddMemberParams identifies the user to add by email.
type AddMemberParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	Email      string
	Role       persistence.ScheduleRole
}

// SetMemberRoleParams changes an existing membership.
type SetMemberRoleParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	UserID     uuid.UUID
	Role       persistence.ScheduleRole
}

// CreateShiftParams wraps the fields of a new shift.
type CreateShiftParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Period     persistence.Period
}

// ListShiftsParams bounds a shift listing. From and To are RFC 3339 strings.
type ListShiftsParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	From       string
	To         string
}

// AssignShiftParams names the assignee. A nil UserID assigns the caller.
type AssignShiftParams struct {
	Caller  Caller
	ShiftID uuid.UUID
	UserID  *uuid.UUID
}

// AddCommentParams carries a comment body for a shift.
type AddCommentParams struct {
	Caller  Caller
	ShiftID uuid.UUID
	Body    string
}

// CreateTemplateParams wraps the fields of a new rotation template.
type CreateTemplateParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	Name       string
	Definition json.RawMessage
}

// ApplyTemplateParams selects the template and the week to generate.
type ApplyTemplateParams struct {
	Caller     Caller
	ScheduleID uuid.UUID
	TemplateID uuid.UUID
	WeekStart  string
}
