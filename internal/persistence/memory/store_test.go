package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/example/shift-scheduler/internal/persistence"
	"github.com/example/shift-scheduler/internal/persistence/memory"
	"github.com/example/shift-scheduler/internal/persistence/storetest"
	"github.com/example/shift-scheduler/internal/testfixtures"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, testfixtures.NewMemoryStore)
}

func TestConcurrentRegistrationKeepsEmailsUnique(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateUser(ctx, persistence.NewUser{Email: "race@example.com", PasswordHash: "h"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case err == persistence.ErrConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != attempts-1 {
		t.Fatalf("expected 1 created and %d conflicts, got %d and %d", attempts-1, created, conflicts)
	}
	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one stored user, got %d", count)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	admin := testfixtures.SeedUser(t, store)
	schedule := testfixtures.SeedSchedule(t, store, admin.ID)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				_, err := store.CreateShift(ctx, persistence.NewShift{
					ScheduleID: schedule.ID,
					StartsAt:   start.Add(time.Duration(w*25+i) * time.Hour),
					EndsAt:     start.Add(time.Duration(w*25+i+1) * time.Hour),
					Period:     persistence.PeriodMorning,
					CreatedBy:  admin.ID,
				})
				if err != nil {
					t.Errorf("CreateShift: %v", err)
					return
				}
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				if _, err := store.ListShifts(ctx, schedule.ID, start, start.Add(365*24*time.Hour)); err != nil {
					t.Errorf("ListShifts: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	shifts, err := store.ListShifts(ctx, schedule.ID, start, start.Add(365*24*time.Hour))
	if err != nil {
		t.Fatalf("ListShifts returned error: %v", err)
	}
	if len(shifts) != 100 {
		t.Fatalf("expected 100 shifts, got %d", len(shifts))
	}
	for i := 1; i < len(shifts); i++ {
		if shifts[i].StartsAt.Before(shifts[i-1].StartsAt) {
			t.Fatalf("shifts out of order at %d", i)
		}
	}
}

func TestTemplateDefinitionIsCopied(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	admin := testfixtures.SeedUser(t, store)
	schedule := testfixtures.SeedSchedule(t, store, admin.ID)

	definition := []byte(`{"slots":[]}`)
	created, err := store.CreateTemplate(ctx, persistence.NewTemplate{
		ScheduleID: schedule.ID, Name: "empty", Definition: definition, CreatedBy: admin.ID,
	})
	if err != nil {
		t.Fatalf("CreateTemplate returned error: %v", err)
	}

	definition[0] = 'X'
	created.Definition[1] = 'Y'

	stored, err := store.GetTemplate(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTemplate returned error: %v", err)
	}
	if got := string(stored.Definition); got != `{"slots":[]}` {
		t.Fatalf("stored definition was mutated: %s", got)
	}
}

func ExampleStore() {
	store := memory.New()
	ctx := context.Background()

	user, _ := store.CreateUser(ctx, persistence.NewUser{Email: "ops@example.com", PasswordHash: "hash"})
	schedule, _ := store.CreateSchedule(ctx, persistence.NewSchedule{Name: "On-call", SubjectType: "team", SubjectName: "SRE", CreatedBy: user.ID})
	role, _ := store.GetScheduleRole(ctx, schedule.ID, user.ID)
	fmt.Println(role)
	// Output: admin
}
