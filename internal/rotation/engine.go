// Package rotation expands weekly rotation templates into concrete shifts.
package rotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

var (
	// ErrInvalidDayOfWeek indicates a slot day outside 0 (Monday) .. 6 (Sunday).
	ErrInvalidDayOfWeek = errors.New("rotation: day of week must be 0..6")
	// ErrInvalidClock indicates a start or end time that is not HH:MM.
	ErrInvalidClock = errors.New("rotation: clock time must be HH:MM")
	// ErrDateOutOfRange indicates a computed instant past year 9999, which
	// cannot be written as an RFC 3339 timestamp.
	ErrDateOutOfRange = errors.New("rotation: date out of range")
)

const (
	daysPerWeek = 7
	maxYear     = 9999
	clockLayout = "15:04"
)

// SlotError identifies the slot that stopped an expansion.
type SlotError struct {
	Index int
	Field string // "dow", "start", "end" or "date"
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %d: %s", e.Index, e.Message())
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// Message is the client-facing description of the failure.
func (e *SlotError) Message() string {
	switch {
	case errors.Is(e.Err, ErrInvalidDayOfWeek):
		return "slot.dow must be 0..6"
	case errors.Is(e.Err, ErrInvalidClock):
		return fmt.Sprintf("slot.%s must be HH:MM", e.Field)
	default:
		return "invalid date"
	}
}

// PlannedShift is a shift ready for insertion.
type PlannedShift = persistence.NewShift

// Engine expands template definitions. Clock times are read as UTC.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Expand turns every slot of def into a shift for the week beginning at
// weekStart, preserving slot order.
//
// The concrete day is weekStart plus the slot's day index. When the end time
// is not after the start time the shift crosses midnight and ends on the next
// day; this adjustment is applied once at most. The first invalid slot aborts
// the expansion with a *SlotError and nothing is returned.
func (e *Engine) Expand(def Definition, weekStart time.Time, scheduleID, creator uuid.UUID) ([]PlannedShift, error) {
	y, m, d := weekStart.UTC().Date()
	base := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	planned := make([]PlannedShift, 0, len(def.Slots))
	for i, slot := range def.Slots {
		startsAt, endsAt, err := expandSlot(base, slot)
		if err != nil {
			err.Index = i
			return nil, err
		}
		planned = append(planned, PlannedShift{
			ScheduleID: scheduleID,
			StartsAt:   startsAt,
			EndsAt:     endsAt,
			Period:     slot.Period,
			CreatedBy:  creator,
		})
	}
	return planned, nil
}

func expandSlot(base time.Time, slot Slot) (time.Time, time.Time, *SlotError) {
	if slot.DayOfWeek < 0 || slot.DayOfWeek >= daysPerWeek {
		return time.Time{}, time.Time{}, &SlotError{Field: "dow", Err: ErrInvalidDayOfWeek}
	}
	start, err := parseClock(slot.Start)
	if err != nil {
		return time.Time{}, time.Time{}, &SlotError{Field: "start", Err: err}
	}
	end, err := parseClock(slot.End)
	if err != nil {
		return time.Time{}, time.Time{}, &SlotError{Field: "end", Err: err}
	}

	day := base.AddDate(0, 0, int(slot.DayOfWeek))
	startsAt := day.Add(start)
	endsAt := day.Add(end)
	if !endsAt.After(startsAt) {
		endsAt = endsAt.AddDate(0, 0, 1)
	}

	if startsAt.Year() > maxYear || endsAt.Year() > maxYear {
		return time.Time{}, time.Time{}, &SlotError{Field: "date", Err: ErrDateOutOfRange}
	}
	return startsAt, endsAt, nil
}

// parseClock returns the offset of an HH:MM clock time from midnight.
func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, ErrInvalidClock
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
