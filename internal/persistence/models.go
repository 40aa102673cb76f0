package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleRole is the role a user holds within a single schedule.
type ScheduleRole string

const (
	RoleAdmin ScheduleRole = "admin"
	RoleUser  ScheduleRole = "user"
)

// Valid reports whether r is one of the known role tags.
func (r ScheduleRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseScheduleRole converts a lowercase tag into a ScheduleRole.
func ParseScheduleRole(value string) (ScheduleRole, error) {
	role := ScheduleRole(value)
	if !role.Valid() {
		return "", fmt.Errorf("unknown schedule role %q", value)
	}
	return role, nil
}

// UnmarshalJSON rejects tags other than admin and user.
func (r *ScheduleRole) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	role, err := ParseScheduleRole(raw)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Period classifies a shift. It is not validated against the shift times.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodNight     Period = "night"
	PeriodSleep     Period = "sleep"
)

// Valid reports whether p is one of the known period tags.
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodNight, PeriodSleep:
		return true
	}
	return false
}

// ParsePeriod converts a lowercase tag into a Period.
func ParsePeriod(value string) (Period, error) {
	period := Period(value)
	if !period.Valid() {
		return "", fmt.Errorf("unknown period %q", value)
	}
	return period, nil
}

// UnmarshalJSON rejects unknown period tags.
func (p *Period) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	period, err := ParsePeriod(raw)
	if err != nil {
		return err
	}
	*p = period
	return nil
}

// User is an account. The credential hash is never part of this record.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Schedule is a named rotation that scopes memberships, shifts and templates.
type Schedule struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	SubjectType string    `json:"subject_type"`
	SubjectName string    `json:"subject_name"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScheduleWithRole pairs a schedule with the role of the user it was listed for.
type ScheduleWithRole struct {
	Schedule Schedule     `json:"schedule"`
	Role     ScheduleRole `json:"role"`
}

// Member pairs a user with their role in a schedule.
type Member struct {
	User User         `json:"user"`
	Role ScheduleRole `json:"role"`
}

// Shift is a time-bounded slot of a schedule, optionally assigned to a user.
type Shift struct {
	ID             uuid.UUID     `json:"id"`
	ScheduleID     uuid.UUID     `json:"schedule_id"`
	StartsAt       time.Time     `json:"starts_at"`
	EndsAt         time.Time     `json:"ends_at"`
	Period         Period        `json:"period"`
	AssignedUserID uuid.NullUUID `json:"assigned_user_id"`
	CreatedBy      uuid.UUID     `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ShiftComment is a note left on a shift.
type ShiftComment struct {
	ID        uuid.UUID `json:"id"`
	ShiftID   uuid.UUID `json:"shift_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// RotationTemplate stores a weekly slot definition as opaque JSON.
type RotationTemplate struct {
	ID         uuid.UUID       `json:"id"`
	ScheduleID uuid.UUID       `json:"schedule_id"`
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	CreatedBy  uuid.UUID       `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewUser carries the fields required to create a user.
type NewUser struct {
	Email        string
	PasswordHash string
	IsSuperadmin bool
}

// NewSchedule carries the fields required to create a schedule.
type NewSchedule struct {
	Name        string
	SubjectType string
	SubjectName string
	CreatedBy   uuid.UUID
}

// NewShift carries the fields required to create a shift.
type NewShift struct {
	ScheduleID uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Period     Period
	CreatedBy  uuid.UUID
}

// NewShiftComment carries the fields required to comment on a shift.
type NewShiftComment struct {
	ShiftID uuid.UUID
	UserID  uuid.UUID
	Body    string
}

// NewTemplate carries the fields required to create a rotation template.
type NewTemplate struct {
	ScheduleID uuid.UUID
	Name       string
	Definition json.RawMessage
	CreatedBy  uuid.UUID
}

// NormalizeTime returns t in UTC at microsecond precision, the resolution
// shared by every adapter.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
