package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/shift-scheduler/internal/application"
	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/testfixtures"
)

// failingShiftStore lets the first ok shift inserts through and then fails.
type failingShiftStore struct {
	persistence.Store
	ok    int
	calls int
}

func (f *failingShiftStore) CreateShift(ctx context.Context, shift persistence.NewShift) (persistence.Shift, error) {
	f.calls++
	if f.calls > f.ok {
		return persistence.Shift{}, persistence.NewStorageError("create shift", errors.New("disk full"))
	}
	return f.Store.CreateShift(ctx, shift)
}

var nightSlot = testfixtures.Slot{DayOfWeek: 5, Period: "night", Start: "22:00", End: "06:00"}

func createTemplate(t *testing.T, env *scheduleEnv, def json.RawMessage) persistence.RotationTemplate {
	t.Helper()
	template, err := env.services.Templates.Create(context.Background(), application.CreateTemplateParams{
		Caller:     env.owner,
		ScheduleID: env.schedule.ID,
		Name:       "Weekly",
		Definition: def,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return template
}

func weekShifts(t *testing.T, env *scheduleEnv) []persistence.Shift {
	t.Helper()
	shifts, err := env.services.Store.ListShifts(context.Background(), env.schedule.ID, monday, monday.Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("list shifts: %v", err)
	}
	return shifts
}

func TestTemplateService_CreateAndList(t *testing.T) {
	t.Parallel()

	env := newScheduleEnv(t)
	ctx := context.Background()

	raw := json.RawMessage(`{"slots": [], "note": "kept as given"}`)
	template := createTemplate(t, env, raw)
	if string(template.Definition) != string(raw) {
		t.Fatalf("expected definition stored verbatim, got %s", template.Definition)
	}

	_, err := env.services.Templates.Create(ctx, application.CreateTemplateParams{
		Caller:     env.member,
		ScheduleID: env.schedule.ID,
		Name:       "Mine",
		Definition: raw,
	})
	if !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("expected forbidden for plain member, got %v", err)
	}

	_, err = env.services.Templates.Create(ctx, application.CreateTemplateParams{
		Caller:     env.owner,
		ScheduleID: env.schedule.ID,
		Name:       " ",
		Definition: raw,
	})
	if application.PublicMessage(err) != "bad request: name is required" {
		t.Fatalf("expected name rejection, got %v", err)
	}

	listed, err := env.services.Templates.List(ctx, env.member, env.schedule.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != template.ID {
		t.Fatalf("expected the created template, got %+v", listed)
	}
}

func TestTemplateService_ApplyOvernightSlot(t *testing.T) {
	t.Parallel()

	env := newScheduleEnv(t)
	template := createTemplate(t, env, testfixtures.Definition(nightSlot))

	created, err := env.services.Templates.Apply(context.Background(), application.ApplyTemplateParams{
		Caller:     env.owner,
		ScheduleID: env.schedule.ID,
		TemplateID: template.ID,
		WeekStart:  "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected one shift, got %d", len(created))
	}
	wantStart := time.Date(2024, time.January, 6, 22, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, time.January, 7, 6, 0, 0, 0, time.UTC)
	if !created[0].StartsAt.Equal(wantStart) || !created[0].EndsAt.Equal(wantEnd) {
		t.Fatalf("got %s..%s, want %s..%s", created[0].StartsAt, created[0].EndsAt, wantStart, wantEnd)
	}
	if created[0].Period != persistence.PeriodNight || created[0].CreatedBy != env.owner.UserID {
		t.Fatalf("unexpected shift %+v", created[0])
	}
}

func TestTemplateService_ApplyTwiceDuplicates(t *testing.T) {
	t.Parallel()

	env := newScheduleEnv(t)
	template := createTemplate(t, env, testfixtures.Definition(
		testfixtures.Slot{DayOfWeek: 0, Period: "morning", Start: "06:00", End: "14:00"},
		nightSlot,
	))
	params := application.ApplyTemplateParams{
		Caller:     env.owner,
		ScheduleID: env.schedule.ID,
		TemplateID: template.ID,
		WeekStart:  "2024-01-01",
	}

	for i := 0; i < 2; i++ {
		if _, err := env.services.Templates.Apply(context.Background(), params); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if got := len(weekShifts(t, env)); got != 4 {
		t.Fatalf("expected two full sets of shifts, got %d", got)
	}
}

func TestTemplateService_ApplyRejections(t *testing.T) {
	t.Parallel()

	env := newScheduleEnv(t)
	ctx := context.Background()
	valid := createTemplate(t, env, testfixtures.Definition(nightSlot))

	other, err := env.services.Schedules.Create(ctx, application.CreateScheduleParams{Caller: env.owner, Name: "Other"})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	tests := []struct {
		name       string
		caller     application.Caller
		definition json.RawMessage
		weekStart  string
		want       string
	}{
		{name: "plain member", caller: env.member, weekStart: "2024-01-01", want: "forbidden"},
		{name: "bad week start", caller: env.owner, weekStart: "01/01/2024", want: "bad request: week_start must be YYYY-MM-DD"},
		{name: "bad definition", caller: env.owner, weekStart: "2024-01-01", definition: json.RawMessage(`{"slots": "nope"}`), want: "bad request: invalid template definition"},
		{name: "unknown period", caller: env.owner, weekStart: "2024-01-01", definition: json.RawMessage(`{"slots": [{"dow": 1, "period": "brunch", "start": "10:00", "end": "11:00"}]}`), want: "bad request: invalid template definition"},
		{name: "day seven", caller: env.owner, weekStart: "2024-01-01", definition: testfixtures.Definition(testfixtures.Slot{DayOfWeek: 7, Period: "night", Start: "22:00", End: "06:00"}), want: "bad request: slot.dow must be 0..6"},
		{name: "bad start", caller: env.owner, weekStart: "2024-01-01", definition: testfixtures.Definition(testfixtures.Slot{DayOfWeek: 1, Period: "morning", Start: "6am", End: "14:00"}), want: "bad request: slot.start must be HH:MM"},
		{name: "bad end", caller: env.owner, weekStart: "2024-01-01", definition: testfixtures.Definition(testfixtures.Slot{DayOfWeek: 1, Period: "morning", Start: "06:00", End: "25:00"}), want: "bad request: slot.end must be HH:MM"},
		{name: "past year 9999", caller: env.owner, weekStart: "9999-12-31", definition: testfixtures.Definition(nightSlot), want: "bad request: invalid date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			templateID := valid.ID
			if tc.definition != nil {
				templateID = createTemplate(t, env, tc.definition).ID
			}
			before := len(weekShifts(t, env))
			_, err := env.services.Templates.Apply(ctx, application.ApplyTemplateParams{
				Caller:     tc.caller,
				ScheduleID: env.schedule.ID,
				TemplateID: templateID,
				WeekStart:  tc.weekStart,
			})
			if got := application.PublicMessage(err); got != tc.want {
				t.Fatalf("unexpected error %q, want %q", got, tc.want)
			}
			if after := len(weekShifts(t, env)); after != before {
				t.Fatalf("expected no shifts inserted, went from %d to %d", before, after)
			}
		})
	}

	t.Run("missing template", func(t *testing.T) {
		_, err := env.services.Templates.Apply(ctx, application.ApplyTemplateParams{
			Caller:     env.owner,
			ScheduleID: env.schedule.ID,
			TemplateID: testfixtures.NewIDGenerator(0x7b).Next(),
			WeekStart:  "2024-01-01",
		})
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("template from another schedule", func(t *testing.T) {
		_, err := env.services.Templates.Apply(ctx, application.ApplyTemplateParams{
			Caller:     env.owner,
			ScheduleID: other.ID,
			TemplateID: valid.ID,
			WeekStart:  "2024-01-01",
		})
		if !errors.Is(err, application.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestTemplateService_ApplyKeepsEarlierInsertsOnStorageFailure(t *testing.T) {
	t.Parallel()

	env := newScheduleEnv(t)
	template := createTemplate(t, env, testfixtures.Definition(
		testfixtures.Slot{DayOfWeek: 0, Period: "morning", Start: "06:00", End: "14:00"},
		testfixtures.Slot{DayOfWeek: 1, Period: "morning", Start: "06:00", End: "14:00"},
		testfixtures.Slot{DayOfWeek: 2, Period: "morning", Start: "06:00", End: "14:00"},
	))

	store := &failingShiftStore{Store: env.services.Store, ok: 2}
	templates := application.NewTemplateServiceWithLogger(store, testfixtures.DiscardLogger())

	created, err := templates.Apply(context.Background(), application.ApplyTemplateParams{
		Caller:     env.owner,
		ScheduleID: env.schedule.ID,
		TemplateID: template.ID,
		WeekStart:  "2024-01-01",
	})
	if !errors.Is(err, application.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if application.PublicMessage(err) != "internal error" {
		t.Fatalf("storage detail leaked: %q", application.PublicMessage(err))
	}
	if created != nil {
		t.Fatalf("expected no result on failure, got %+v", created)
	}
	if got := len(weekShifts(t, env)); got != 2 {
		t.Fatalf("expected the two earlier inserts to remain, got %d", got)
	}
}
