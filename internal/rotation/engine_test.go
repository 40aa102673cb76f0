package rotation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

var (
	scheduleID = uuid.MustParse("7c0e6f0a-2d8e-4a55-9a4f-0d7d1f7f0001")
	creatorID  = uuid.MustParse("7c0e6f0a-2d8e-4a55-9a4f-0d7d1f7f0002")
	monday     = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestEngineExpand(t *testing.T) {
	t.Parallel()
	engine := NewEngine()

	t.Run("overnight slot crosses midnight", func(t *testing.T) {
		t.Parallel()
		def := Definition{Slots: []Slot{{DayOfWeek: 5, Period: persistence.PeriodNight, Start: "22:00", End: "06:00"}}}

		got, err := engine.Expand(def, monday, scheduleID, creatorID)
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		want := []PlannedShift{{
			ScheduleID: scheduleID,
			StartsAt:   utc(2024, time.January, 6, 22, 0),
			EndsAt:     utc(2024, time.January, 7, 6, 0),
			Period:     persistence.PeriodNight,
			CreatedBy:  creatorID,
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected shifts (-want +got):\n%s", diff)
		}
	})

	t.Run("preserves slot order", func(t *testing.T) {
		t.Parallel()
		def := Definition{Slots: []Slot{
			{DayOfWeek: 6, Period: persistence.PeriodAfternoon, Start: "14:00", End: "22:00"},
			{DayOfWeek: 0, Period: persistence.PeriodMorning, Start: "06:00", End: "14:00"},
			{DayOfWeek: 0, Period: persistence.PeriodSleep, Start: "9:30", End: "10:45"},
		}}

		got, err := engine.Expand(def, monday, scheduleID, creatorID)
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		want := []PlannedShift{
			{ScheduleID: scheduleID, StartsAt: utc(2024, 1, 7, 14, 0), EndsAt: utc(2024, 1, 7, 22, 0), Period: persistence.PeriodAfternoon, CreatedBy: creatorID},
			{ScheduleID: scheduleID, StartsAt: utc(2024, 1, 1, 6, 0), EndsAt: utc(2024, 1, 1, 14, 0), Period: persistence.PeriodMorning, CreatedBy: creatorID},
			{ScheduleID: scheduleID, StartsAt: utc(2024, 1, 1, 9, 30), EndsAt: utc(2024, 1, 1, 10, 45), Period: persistence.PeriodSleep, CreatedBy: creatorID},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected shifts (-want +got):\n%s", diff)
		}
	})

	t.Run("equal start and end is a full day", func(t *testing.T) {
		t.Parallel()
		def := Definition{Slots: []Slot{{DayOfWeek: 2, Period: persistence.PeriodMorning, Start: "08:00", End: "08:00"}}}

		got, err := engine.Expand(def, monday, scheduleID, creatorID)
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if d := got[0].EndsAt.Sub(got[0].StartsAt); d != 24*time.Hour {
			t.Fatalf("expected 24h shift, got %v", d)
		}
	})

	t.Run("week start need not be a monday", func(t *testing.T) {
		t.Parallel()
		wednesday := monday.AddDate(0, 0, 2)
		def := Definition{Slots: []Slot{{DayOfWeek: 0, Period: persistence.PeriodMorning, Start: "07:00", End: "15:00"}}}

		got, err := engine.Expand(def, wednesday, scheduleID, creatorID)
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if !got[0].StartsAt.Equal(utc(2024, 1, 3, 7, 0)) {
			t.Fatalf("expected shift on the week start date, got %v", got[0].StartsAt)
		}
	})

	t.Run("empty definition", func(t *testing.T) {
		t.Parallel()
		got, err := engine.Expand(Definition{}, monday, scheduleID, creatorID)
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no shifts, got %d", len(got))
		}
	})
}

func TestEngineExpandRejectsBadSlots(t *testing.T) {
	t.Parallel()
	engine := NewEngine()
	valid := Slot{DayOfWeek: 0, Period: persistence.PeriodMorning, Start: "06:00", End: "14:00"}

	tests := []struct {
		name      string
		bad       Slot
		weekStart time.Time
		wantErr   error
		wantMsg   string
	}{
		{name: "dow 7", bad: Slot{DayOfWeek: 7, Period: persistence.PeriodNight, Start: "22:00", End: "06:00"}, wantErr: ErrInvalidDayOfWeek, wantMsg: "slot.dow must be 0..6"},
		{name: "negative dow", bad: Slot{DayOfWeek: -1, Start: "22:00", End: "06:00"}, wantErr: ErrInvalidDayOfWeek, wantMsg: "slot.dow must be 0..6"},
		{name: "bad start", bad: Slot{DayOfWeek: 1, Start: "25:00", End: "06:00"}, wantErr: ErrInvalidClock, wantMsg: "slot.start must be HH:MM"},
		{name: "seconds in end", bad: Slot{DayOfWeek: 1, Start: "22:00", End: "06:00:00"}, wantErr: ErrInvalidClock, wantMsg: "slot.end must be HH:MM"},
		{name: "empty end", bad: Slot{DayOfWeek: 1, Start: "22:00", End: ""}, wantErr: ErrInvalidClock, wantMsg: "slot.end must be HH:MM"},
		{
			name:      "past year 9999",
			bad:       Slot{DayOfWeek: 6, Start: "08:00", End: "09:00"},
			weekStart: time.Date(9999, time.December, 30, 0, 0, 0, 0, time.UTC),
			wantErr:   ErrDateOutOfRange,
			wantMsg:   "invalid date",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			weekStart := tc.weekStart
			if weekStart.IsZero() {
				weekStart = monday
			}
			def := Definition{Slots: []Slot{valid, tc.bad, valid}}

			got, err := engine.Expand(def, weekStart, scheduleID, creatorID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if got != nil {
				t.Fatalf("expected no shifts on failure, got %d", len(got))
			}
			var slotErr *SlotError
			if !errors.As(err, &slotErr) {
				t.Fatalf("expected *SlotError, got %T", err)
			}
			if slotErr.Index != 1 {
				t.Fatalf("expected failing index 1, got %d", slotErr.Index)
			}
			if slotErr.Message() != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, slotErr.Message())
			}
		})
	}
}

func TestParseDefinition(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		raw := []byte(`{"slots":[{"dow":5,"period":"night","start":"22:00","end":"06:00","note":"ignored"}],"version":2}`)
		got, err := ParseDefinition(raw)
		if err != nil {
			t.Fatalf("ParseDefinition returned error: %v", err)
		}
		want := Definition{Slots: []Slot{{DayOfWeek: 5, Period: persistence.PeriodNight, Start: "22:00", End: "06:00"}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected definition (-want +got):\n%s", diff)
		}
	})

	t.Run("out of range dow still parses", func(t *testing.T) {
		t.Parallel()
		got, err := ParseDefinition([]byte(`{"slots":[{"dow":7,"period":"night","start":"22:00","end":"06:00"}]}`))
		if err != nil {
			t.Fatalf("ParseDefinition returned error: %v", err)
		}
		if got.Slots[0].DayOfWeek != 7 {
			t.Fatalf("expected dow 7, got %d", got.Slots[0].DayOfWeek)
		}
	})

	invalid := map[string]string{
		"not json":        `{`,
		"array":           `[]`,
		"null":            `null`,
		"missing slots":   `{"days":[]}`,
		"slots not array": `{"slots":{}}`,
		"fractional dow":  `{"slots":[{"dow":1.5,"period":"night","start":"22:00","end":"06:00"}]}`,
		"unknown period":  `{"slots":[{"dow":1,"period":"evening","start":"22:00","end":"06:00"}]}`,
		"missing end":     `{"slots":[{"dow":1,"period":"night","start":"22:00"}]}`,
		"numeric start":   `{"slots":[{"dow":1,"period":"night","start":2200,"end":"06:00"}]}`,
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseDefinition([]byte(raw)); !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestParseWeekStart(t *testing.T) {
	t.Parallel()

	got, err := ParseWeekStart("2024-01-01")
	if err != nil {
		t.Fatalf("ParseWeekStart returned error: %v", err)
	}
	if !got.Equal(monday) || got.Location() != time.UTC {
		t.Fatalf("expected %v, got %v", monday, got)
	}

	for _, value := range []string{"", "2024-1-1", "01/01/2024", "2024-02-30", "2024-01-01T00:00:00Z"} {
		if _, err := ParseWeekStart(value); !errors.Is(err, ErrInvalidWeekStart) {
			t.Fatalf("ParseWeekStart(%q): expected ErrInvalidWeekStart, got %v", value, err)
		}
	}
}
