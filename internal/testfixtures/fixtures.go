package testfixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

var (
	userCounter     uint64
	scheduleCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated persistence.NewUser.
type UserOption func(*persistence.NewUser)

// NewUserInput returns a user input with a unique email address.
func NewUserInput(opts ...UserOption) persistence.NewUser {
	idx := atomic.AddUint64(&userCounter, 1)
	input := persistence.NewUser{
		Email:        fmt.Sprintf("user-%03d@example.com", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
	}
	for _, opt := range opts {
		opt(&input)
	}
	return input
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.NewUser) {
		u.Email = email
	}
}

// WithUserPasswordHash overrides the generated credential hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.NewUser) {
		u.PasswordHash = hash
	}
}

// WithSuperadmin marks the generated user as a superadmin.
func WithSuperadmin() UserOption {
	return func(u *persistence.NewUser) {
		u.IsSuperadmin = true
	}
}

// SeedUser stores a generated user and fails the test on error.
func SeedUser(tb testing.TB, store persistence.UserStore, opts ...UserOption) persistence.User {
	tb.Helper()
	user, err := store.CreateUser(context.Background(), NewUserInput(opts...))
	if err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return user
}

// --------------------------- Schedule fixtures ---------------------------

// NewScheduleInput returns a schedule input created by creator.
func NewScheduleInput(creator uuid.UUID) persistence.NewSchedule {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	return persistence.NewSchedule{
		Name:        fmt.Sprintf("Ward %03d rota", idx),
		SubjectType: "ward",
		SubjectName: fmt.Sprintf("Ward %03d", idx),
		CreatedBy:   creator,
	}
}

// SeedSchedule stores a schedule owned by creator and fails the test on error.
func SeedSchedule(tb testing.TB, store persistence.ScheduleStore, creator uuid.UUID) persistence.Schedule {
	tb.Helper()
	schedule, err := store.CreateSchedule(context.Background(), NewScheduleInput(creator))
	if err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return schedule
}

// SeedMember adds userID to the schedule with role.
func SeedMember(tb testing.TB, store persistence.ScheduleStore, scheduleID, userID uuid.UUID, role persistence.ScheduleRole) {
	tb.Helper()
	if err := store.AddMember(context.Background(), scheduleID, userID, role); err != nil {
		tb.Fatalf("seed member: %v", err)
	}
}

// ----------------------------- Shift fixtures -----------------------------

// SeedShift stores a shift starting at startsAt and lasting length.
func SeedShift(tb testing.TB, store persistence.ShiftStore, scheduleID, creator uuid.UUID, startsAt time.Time, length time.Duration, period persistence.Period) persistence.Shift {
	tb.Helper()
	shift, err := store.CreateShift(context.Background(), persistence.NewShift{
		ScheduleID: scheduleID,
		StartsAt:   startsAt,
		EndsAt:     startsAt.Add(length),
		Period:     period,
		CreatedBy:  creator,
	})
	if err != nil {
		tb.Fatalf("seed shift: %v", err)
	}
	return shift
}

// --------------------------- Template fixtures ----------------------------

// Slot mirrors one entry of a rotation template definition.
type Slot struct {
	DayOfWeek int    `json:"dow"`
	Period    string `json:"period"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// Definition encodes slots as a template definition document.
func Definition(slots ...Slot) json.RawMessage {
	if slots == nil {
		slots = []Slot{}
	}
	raw, err := json.Marshal(struct {
		Slots []Slot `json:"slots"`
	}{Slots: slots})
	if err != nil {
		panic(err)
	}
	return raw
}
