// Package storetest holds the behavioural contract shared by every
// persistence.Store adapter. Each adapter package runs Run against its own
// factory so the in-memory and relational stores cannot drift apart.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/testfixtures"
)

// env bundles a fresh store with the deterministic collaborators it was
// built with.
type env struct {
	store persistence.Store
	clock *testfixtures.Clock
	ids   *testfixtures.IDGenerator
}

func newEnv(t *testing.T, factory testfixtures.StoreFactory) env {
	t.Helper()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator(0x5a)
	store := factory(t,
		persistence.WithClock(clock.NowFunc()),
		persistence.WithIDGenerator(ids.NextFunc()),
	)
	return env{store: store, clock: clock, ids: ids}
}

// Run executes the conformance suite against stores produced by factory.
func Run(t *testing.T, factory testfixtures.StoreFactory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, factory) })
	t.Run("Schedules", func(t *testing.T) { testSchedules(t, factory) })
	t.Run("Members", func(t *testing.T) { testMembers(t, factory) })
	t.Run("Shifts", func(t *testing.T) { testShifts(t, factory) })
	t.Run("Comments", func(t *testing.T) { testComments(t, factory) })
	t.Run("Templates", func(t *testing.T) { testTemplates(t, factory) })
}

func testUsers(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()

	t.Run("create assigns id and timestamp", func(t *testing.T) {
		e := newEnv(t, factory)

		count, err := e.store.CountUsers(ctx)
		require.NoError(t, err)
		require.Zero(t, count)

		e.clock.Set(time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.UTC))
		user, err := e.store.CreateUser(ctx, persistence.NewUser{
			Email:        "alice@example.com",
			PasswordHash: "argon-hash",
			IsSuperadmin: true,
		})
		require.NoError(t, err)
		require.Equal(t, e.ids.At(1), user.ID)
		require.Equal(t, "alice@example.com", user.Email)
		require.True(t, user.IsSuperadmin)
		require.True(t, user.CreatedAt.Equal(time.Date(2024, 5, 1, 8, 30, 0, 123456000, time.UTC)),
			"created_at truncated to microseconds, got %v", user.CreatedAt)

		count, err = e.store.CountUsers(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)

		stored, err := e.store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		requireSameUser(t, user, stored)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		e := newEnv(t, factory)
		testfixtures.SeedUser(t, e.store, testfixtures.WithUserEmail("dup@example.com"))

		_, err := e.store.CreateUser(ctx, persistence.NewUser{Email: "dup@example.com", PasswordHash: "other"})
		require.ErrorIs(t, err, persistence.ErrConflict)

		count, err := e.store.CountUsers(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	})

	t.Run("find by email returns hash", func(t *testing.T) {
		e := newEnv(t, factory)
		seeded := testfixtures.SeedUser(t, e.store,
			testfixtures.WithUserEmail("bob@example.com"),
			testfixtures.WithUserPasswordHash("secret-hash"),
		)

		user, hash, err := e.store.FindUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Equal(t, "secret-hash", hash)
		requireSameUser(t, seeded, user)

		_, _, err = e.store.FindUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("get unknown user", func(t *testing.T) {
		e := newEnv(t, factory)
		_, err := e.store.GetUser(ctx, uuid.New())
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func testSchedules(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()

	t.Run("create records creator as admin", func(t *testing.T) {
		e := newEnv(t, factory)
		creator := testfixtures.SeedUser(t, e.store)

		schedule, err := e.store.CreateSchedule(ctx, persistence.NewSchedule{
			Name:        "ICU nights",
			SubjectType: "ward",
			SubjectName: "ICU",
			CreatedBy:   creator.ID,
		})
		require.NoError(t, err)
		require.Equal(t, "ICU nights", schedule.Name)
		require.Equal(t, creator.ID, schedule.CreatedBy)

		role, err := e.store.GetScheduleRole(ctx, schedule.ID, creator.ID)
		require.NoError(t, err)
		require.Equal(t, persistence.RoleAdmin, role)

		stored, err := e.store.GetSchedule(ctx, schedule.ID)
		require.NoError(t, err)
		require.Equal(t, schedule.ID, stored.ID)
		require.Equal(t, schedule.SubjectName, stored.SubjectName)
		require.True(t, schedule.CreatedAt.Equal(stored.CreatedAt))
	})

	t.Run("unknown creator leaves nothing behind", func(t *testing.T) {
		e := newEnv(t, factory)
		ghost := uuid.New()

		_, err := e.store.CreateSchedule(ctx, testfixtures.NewScheduleInput(ghost))
		require.ErrorIs(t, err, persistence.ErrInternal)

		list, err := e.store.ListSchedulesForUser(ctx, ghost)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("list is newest first with roles", func(t *testing.T) {
		e := newEnv(t, factory)
		alice := testfixtures.SeedUser(t, e.store)
		bob := testfixtures.SeedUser(t, e.store)

		older := testfixtures.SeedSchedule(t, e.store, alice.ID)
		e.clock.Advance(time.Minute)
		newer := testfixtures.SeedSchedule(t, e.store, bob.ID)
		testfixtures.SeedMember(t, e.store, newer.ID, alice.ID, persistence.RoleUser)

		list, err := e.store.ListSchedulesForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, newer.ID, list[0].Schedule.ID)
		require.Equal(t, persistence.RoleUser, list[0].Role)
		require.Equal(t, older.ID, list[1].Schedule.ID)
		require.Equal(t, persistence.RoleAdmin, list[1].Role)
	})

	t.Run("list breaks timestamp ties by id", func(t *testing.T) {
		e := newEnv(t, factory)
		alice := testfixtures.SeedUser(t, e.store)

		first := testfixtures.SeedSchedule(t, e.store, alice.ID)
		second := testfixtures.SeedSchedule(t, e.store, alice.ID)

		list, err := e.store.ListSchedulesForUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, first.ID, list[0].Schedule.ID)
		require.Equal(t, second.ID, list[1].Schedule.ID)
	})

	t.Run("non member sees empty list", func(t *testing.T) {
		e := newEnv(t, factory)
		alice := testfixtures.SeedUser(t, e.store)
		outsider := testfixtures.SeedUser(t, e.store)
		testfixtures.SeedSchedule(t, e.store, alice.ID)

		list, err := e.store.ListSchedulesForUser(ctx, outsider.ID)
		require.NoError(t, err)
		require.NotNil(t, list)
		require.Empty(t, list)
	})

	t.Run("missing schedule and role", func(t *testing.T) {
		e := newEnv(t, factory)
		alice := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, alice.ID)

		_, err := e.store.GetSchedule(ctx, uuid.New())
		require.ErrorIs(t, err, persistence.ErrNotFound)

		_, err = e.store.GetScheduleRole(ctx, schedule.ID, uuid.New())
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func testMembers(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()

	t.Run("members ordered by join time", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		e.clock.Advance(time.Hour)
		late := testfixtures.SeedUser(t, e.store)
		early := testfixtures.SeedUser(t, e.store)
		testfixtures.SeedMember(t, e.store, schedule.ID, early.ID, persistence.RoleUser)
		e.clock.Advance(time.Minute)
		testfixtures.SeedMember(t, e.store, schedule.ID, late.ID, persistence.RoleAdmin)

		members, err := e.store.ListScheduleMembers(ctx, schedule.ID)
		require.NoError(t, err)
		require.Len(t, members, 3)
		require.Equal(t, admin.ID, members[0].User.ID)
		require.Equal(t, persistence.RoleAdmin, members[0].Role)
		require.Equal(t, early.ID, members[1].User.ID)
		require.Equal(t, persistence.RoleUser, members[1].Role)
		require.Equal(t, late.ID, members[2].User.ID)
		require.Equal(t, persistence.RoleAdmin, members[2].Role)
		require.Equal(t, early.Email, members[1].User.Email)
	})

	t.Run("duplicate membership conflicts", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		err := e.store.AddMember(ctx, schedule.ID, admin.ID, persistence.RoleUser)
		require.ErrorIs(t, err, persistence.ErrConflict)

		role, err := e.store.GetScheduleRole(ctx, schedule.ID, admin.ID)
		require.NoError(t, err)
		require.Equal(t, persistence.RoleAdmin, role)
	})

	t.Run("unknown references are internal", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		err := e.store.AddMember(ctx, schedule.ID, uuid.New(), persistence.RoleUser)
		require.ErrorIs(t, err, persistence.ErrInternal)

		err = e.store.AddMember(ctx, uuid.New(), admin.ID, persistence.RoleUser)
		require.ErrorIs(t, err, persistence.ErrInternal)
	})

	t.Run("set role", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		member := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		testfixtures.SeedMember(t, e.store, schedule.ID, member.ID, persistence.RoleUser)

		require.NoError(t, e.store.SetMemberRole(ctx, schedule.ID, member.ID, persistence.RoleAdmin))
		role, err := e.store.GetScheduleRole(ctx, schedule.ID, member.ID)
		require.NoError(t, err)
		require.Equal(t, persistence.RoleAdmin, role)

		// setting the current role again still matches the row
		require.NoError(t, e.store.SetMemberRole(ctx, schedule.ID, member.ID, persistence.RoleAdmin))

		err = e.store.SetMemberRole(ctx, schedule.ID, uuid.New(), persistence.RoleUser)
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func testShifts(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()
	monday := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("create normalizes times", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		tokyo := time.FixedZone("JST", 9*3600)
		start := time.Date(2024, 1, 1, 17, 0, 0, 999, tokyo)
		shift, err := e.store.CreateShift(ctx, persistence.NewShift{
			ScheduleID: schedule.ID,
			StartsAt:   start,
			EndsAt:     start.Add(8 * time.Hour),
			Period:     persistence.PeriodNight,
			CreatedBy:  admin.ID,
		})
		require.NoError(t, err)
		require.Equal(t, time.UTC, shift.StartsAt.Location())
		require.True(t, shift.StartsAt.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
		require.False(t, shift.AssignedUserID.Valid)

		stored, err := e.store.GetShift(ctx, shift.ID)
		require.NoError(t, err)
		requireSameShift(t, shift, stored)
	})

	t.Run("create rejects bad references and period", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		_, err := e.store.CreateShift(ctx, persistence.NewShift{
			ScheduleID: uuid.New(), StartsAt: monday, EndsAt: monday.Add(time.Hour),
			Period: persistence.PeriodMorning, CreatedBy: admin.ID,
		})
		require.ErrorIs(t, err, persistence.ErrInternal)

		_, err = e.store.CreateShift(ctx, persistence.NewShift{
			ScheduleID: schedule.ID, StartsAt: monday, EndsAt: monday.Add(time.Hour),
			Period: persistence.Period("evening"), CreatedBy: admin.ID,
		})
		require.ErrorIs(t, err, persistence.ErrInternal)
	})

	t.Run("list filters half open range", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		other := testfixtures.SeedSchedule(t, e.store, admin.ID)

		late := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday.Add(30*time.Hour), 8*time.Hour, persistence.PeriodAfternoon)
		early := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday.Add(6*time.Hour), 8*time.Hour, persistence.PeriodMorning)
		testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday.Add(7*24*time.Hour), 8*time.Hour, persistence.PeriodMorning)
		testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday.Add(-time.Hour), 8*time.Hour, persistence.PeriodSleep)
		testfixtures.SeedShift(t, e.store, other.ID, admin.ID, monday.Add(time.Hour), 8*time.Hour, persistence.PeriodMorning)

		shifts, err := e.store.ListShifts(ctx, schedule.ID, monday, monday.Add(7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, shifts, 2)
		require.Equal(t, early.ID, shifts[0].ID)
		require.Equal(t, late.ID, shifts[1].ID)

		// from is inclusive
		shifts, err = e.store.ListShifts(ctx, schedule.ID, early.StartsAt, early.StartsAt.Add(time.Second))
		require.NoError(t, err)
		require.Len(t, shifts, 1)

		shifts, err = e.store.ListShifts(ctx, schedule.ID, monday.Add(time.Hour), monday)
		require.NoError(t, err)
		require.NotNil(t, shifts)
		require.Empty(t, shifts)
	})

	t.Run("list breaks start ties by id", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		first := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday, time.Hour, persistence.PeriodMorning)
		second := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday, 2*time.Hour, persistence.PeriodMorning)

		shifts, err := e.store.ListShifts(ctx, schedule.ID, monday, monday.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, shifts, 2)
		require.Equal(t, first.ID, shifts[0].ID)
		require.Equal(t, second.ID, shifts[1].ID)
	})

	t.Run("assign and clear", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		worker := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		shift := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday, time.Hour, persistence.PeriodMorning)

		require.NoError(t, e.store.AssignShift(ctx, shift.ID, uuid.NullUUID{UUID: worker.ID, Valid: true}))
		stored, err := e.store.GetShift(ctx, shift.ID)
		require.NoError(t, err)
		require.Equal(t, uuid.NullUUID{UUID: worker.ID, Valid: true}, stored.AssignedUserID)

		require.NoError(t, e.store.AssignShift(ctx, shift.ID, uuid.NullUUID{}))
		stored, err = e.store.GetShift(ctx, shift.ID)
		require.NoError(t, err)
		require.False(t, stored.AssignedUserID.Valid)
	})

	t.Run("assign failures", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		shift := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, monday, time.Hour, persistence.PeriodMorning)

		err := e.store.AssignShift(ctx, uuid.New(), uuid.NullUUID{UUID: admin.ID, Valid: true})
		require.ErrorIs(t, err, persistence.ErrNotFound)

		err = e.store.AssignShift(ctx, shift.ID, uuid.NullUUID{UUID: uuid.New(), Valid: true})
		require.ErrorIs(t, err, persistence.ErrInternal)

		_, err = e.store.GetShift(ctx, uuid.New())
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func testComments(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

	t.Run("comments oldest first", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		shift := testfixtures.SeedShift(t, e.store, schedule.ID, admin.ID, start, time.Hour, persistence.PeriodMorning)

		empty, err := e.store.ListShiftComments(ctx, shift.ID)
		require.NoError(t, err)
		require.NotNil(t, empty)
		require.Empty(t, empty)

		first, err := e.store.AddShiftComment(ctx, persistence.NewShiftComment{ShiftID: shift.ID, UserID: admin.ID, Body: "covering"})
		require.NoError(t, err)
		e.clock.Advance(time.Minute)
		second, err := e.store.AddShiftComment(ctx, persistence.NewShiftComment{ShiftID: shift.ID, UserID: admin.ID, Body: "thanks"})
		require.NoError(t, err)

		comments, err := e.store.ListShiftComments(ctx, shift.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		require.Equal(t, first.ID, comments[0].ID)
		require.Equal(t, "covering", comments[0].Body)
		require.Equal(t, second.ID, comments[1].ID)
		require.True(t, second.CreatedAt.Equal(comments[1].CreatedAt))
	})

	t.Run("comment on unknown shift", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)

		_, err := e.store.AddShiftComment(ctx, persistence.NewShiftComment{ShiftID: uuid.New(), UserID: admin.ID, Body: "hello"})
		require.ErrorIs(t, err, persistence.ErrInternal)
	})
}

func testTemplates(t *testing.T, factory testfixtures.StoreFactory) {
	ctx := context.Background()

	t.Run("definition bytes preserved", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)

		definition := json.RawMessage(`{"slots": [ {"dow": 5, "period": "night", "start": "22:00", "end": "06:00"} ]}`)
		created, err := e.store.CreateTemplate(ctx, persistence.NewTemplate{
			ScheduleID: schedule.ID,
			Name:       "Weekend nights",
			Definition: definition,
			CreatedBy:  admin.ID,
		})
		require.NoError(t, err)
		require.Equal(t, string(definition), string(created.Definition))

		stored, err := e.store.GetTemplate(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, string(definition), string(stored.Definition))
		require.Equal(t, "Weekend nights", stored.Name)
		require.Equal(t, schedule.ID, stored.ScheduleID)
		require.True(t, created.CreatedAt.Equal(stored.CreatedAt))

		_, err = e.store.GetTemplate(ctx, uuid.New())
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("list newest first per schedule", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)
		schedule := testfixtures.SeedSchedule(t, e.store, admin.ID)
		other := testfixtures.SeedSchedule(t, e.store, admin.ID)

		create := func(scheduleID uuid.UUID, name string) persistence.RotationTemplate {
			tmpl, err := e.store.CreateTemplate(ctx, persistence.NewTemplate{
				ScheduleID: scheduleID,
				Name:       name,
				Definition: testfixtures.Definition(testfixtures.Slot{DayOfWeek: 1, Period: "morning", Start: "06:00", End: "14:00"}),
				CreatedBy:  admin.ID,
			})
			require.NoError(t, err)
			return tmpl
		}

		older := create(schedule.ID, "weekday")
		e.clock.Advance(time.Minute)
		newer := create(schedule.ID, "weekend")
		create(other.ID, "elsewhere")

		list, err := e.store.ListTemplates(ctx, schedule.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, newer.ID, list[0].ID)
		require.Equal(t, older.ID, list[1].ID)

		empty, err := e.store.ListTemplates(ctx, uuid.New())
		require.NoError(t, err)
		require.NotNil(t, empty)
		require.Empty(t, empty)
	})

	t.Run("unknown schedule is internal", func(t *testing.T) {
		e := newEnv(t, factory)
		admin := testfixtures.SeedUser(t, e.store)

		_, err := e.store.CreateTemplate(ctx, persistence.NewTemplate{
			ScheduleID: uuid.New(),
			Name:       "orphan",
			Definition: testfixtures.Definition(),
			CreatedBy:  admin.ID,
		})
		require.ErrorIs(t, err, persistence.ErrInternal)
	})
}

func requireSameUser(t *testing.T, want, got persistence.User) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Email, got.Email)
	require.Equal(t, want.IsSuperadmin, got.IsSuperadmin)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
}

func requireSameShift(t *testing.T, want, got persistence.Shift) {
	t.Helper()
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.ScheduleID, got.ScheduleID)
	require.True(t, want.StartsAt.Equal(got.StartsAt), "starts_at %v != %v", want.StartsAt, got.StartsAt)
	require.True(t, want.EndsAt.Equal(got.EndsAt), "ends_at %v != %v", want.EndsAt, got.EndsAt)
	require.Equal(t, want.Period, got.Period)
	require.Equal(t, want.AssignedUserID, got.AssignedUserID)
	require.Equal(t, want.CreatedBy, got.CreatedBy)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))
}
