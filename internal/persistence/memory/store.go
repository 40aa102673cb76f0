// Package memory provides a process-local implementation of persistence.Store.
// All state sits behind one reader/writer lock: reads run concurrently, writes
// are exclusive.
package memory

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

var errMissingReference = errors.New("memory: referenced record does not exist")

type userRecord struct {
	user         persistence.User
	passwordHash string
}

type memberKey struct {
	scheduleID uuid.UUID
	userID     uuid.UUID
}

type memberRecord struct {
	role      persistence.ScheduleRole
	createdAt time.Time
}

type state struct {
	users     map[uuid.UUID]userRecord
	emails    map[string]uuid.UUID
	schedules map[uuid.UUID]persistence.Schedule
	members   map[memberKey]memberRecord
	shifts    map[uuid.UUID]persistence.Shift
	comments  map[uuid.UUID][]persistence.ShiftComment
	templates map[uuid.UUID]persistence.RotationTemplate
}

// Store is the in-memory adapter.
type Store struct {
	mu    sync.RWMutex
	state state
	now   func() time.Time
	newID func() uuid.UUID
}

var _ persistence.Store = (*Store)(nil)

// New returns an empty Store.
func New(opts ...persistence.Option) *Store {
	resolved := persistence.ResolveOptions(opts...)
	return &Store{
		state: state{
			users:     make(map[uuid.UUID]userRecord),
			emails:    make(map[string]uuid.UUID),
			schedules: make(map[uuid.UUID]persistence.Schedule),
			members:   make(map[memberKey]memberRecord),
			shifts:    make(map[uuid.UUID]persistence.Shift),
			comments:  make(map[uuid.UUID][]persistence.ShiftComment),
			templates: make(map[uuid.UUID]persistence.RotationTemplate),
		},
		now:   resolved.Now,
		newID: resolved.NewID,
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) timestamp() time.Time {
	return persistence.NormalizeTime(s.now())
}

// --- UserStore implementation ---

// CountUsers returns the number of stored users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.state.users)), nil
}

// CreateUser stores a new user; duplicate emails are a conflict.
func (s *Store) CreateUser(ctx context.Context, nu persistence.NewUser) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.emails[nu.Email]; ok {
		return persistence.User{}, persistence.ErrConflict
	}

	user := persistence.User{
		ID:           s.newID(),
		Email:        nu.Email,
		IsSuperadmin: nu.IsSuperadmin,
		CreatedAt:    s.timestamp(),
	}
	if _, ok := s.state.users[user.ID]; ok {
		return persistence.User{}, persistence.ErrConflict
	}
	s.state.users[user.ID] = userRecord{user: user, passwordHash: nu.PasswordHash}
	s.state.emails[nu.Email] = user.ID
	return user, nil
}

// FindUserByEmail looks up a user and its credential hash by exact email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (persistence.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.state.emails[email]
	if !ok {
		return persistence.User{}, "", persistence.ErrNotFound
	}
	record := s.state.users[id]
	return record.user, record.passwordHash, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.state.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return record.user, nil
}

// --- ScheduleStore implementation ---

// CreateSchedule stores the schedule and the creator's admin membership under
// one write lock.
func (s *Store) CreateSchedule(ctx context.Context, ns persistence.NewSchedule) (persistence.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.users[ns.CreatedBy]; !ok {
		return persistence.Schedule{}, persistence.NewStorageError("create schedule", errMissingReference)
	}

	createdAt := s.timestamp()
	schedule := persistence.Schedule{
		ID:          s.newID(),
		Name:        ns.Name,
		SubjectType: ns.SubjectType,
		SubjectName: ns.SubjectName,
		CreatedBy:   ns.CreatedBy,
		CreatedAt:   createdAt,
	}
	if _, ok := s.state.schedules[schedule.ID]; ok {
		return persistence.Schedule{}, persistence.ErrConflict
	}
	s.state.schedules[schedule.ID] = schedule
	s.state.members[memberKey{scheduleID: schedule.ID, userID: ns.CreatedBy}] = memberRecord{
		role:      persistence.RoleAdmin,
		createdAt: createdAt,
	}
	return schedule, nil
}

// ListSchedulesForUser returns every schedule the user belongs to, newest first.
func (s *Store) ListSchedulesForUser(ctx context.Context, userID uuid.UUID) ([]persistence.ScheduleWithRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.ScheduleWithRole, 0)
	for key, member := range s.state.members {
		if key.userID != userID {
			continue
		}
		schedule, ok := s.state.schedules[key.scheduleID]
		if !ok {
			continue
		}
		out = append(out, persistence.ScheduleWithRole{Schedule: schedule, Role: member.role})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Schedule, out[j].Schedule
		if a.CreatedAt.Equal(b.CreatedAt) {
			return lessID(a.ID, b.ID)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return out, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Store) GetSchedule(ctx context.Context, id uuid.UUID) (persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.state.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return schedule, nil
}

// GetScheduleRole returns the user's role in the schedule.
func (s *Store) GetScheduleRole(ctx context.Context, scheduleID, userID uuid.UUID) (persistence.ScheduleRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.state.members[memberKey{scheduleID: scheduleID, userID: userID}]
	if !ok {
		return "", persistence.ErrNotFound
	}
	return member.role, nil
}

// ListScheduleMembers returns members in the order they joined.
func (s *Store) ListScheduleMembers(ctx context.Context, scheduleID uuid.UUID) ([]persistence.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type joined struct {
		member    persistence.Member
		createdAt time.Time
	}
	rows := make([]joined, 0)
	for key, member := range s.state.members {
		if key.scheduleID != scheduleID {
			continue
		}
		record, ok := s.state.users[key.userID]
		if !ok {
			continue
		}
		rows = append(rows, joined{
			member:    persistence.Member{User: record.user, Role: member.role},
			createdAt: member.createdAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].createdAt.Equal(rows[j].createdAt) {
			return lessID(rows[i].member.User.ID, rows[j].member.User.ID)
		}
		return rows[i].createdAt.Before(rows[j].createdAt)
	})

	out := make([]persistence.Member, len(rows))
	for i, row := range rows {
		out[i] = row.member
	}
	return out, nil
}

// AddMember inserts a membership; an existing pair is a conflict.
func (s *Store) AddMember(ctx context.Context, scheduleID, userID uuid.UUID, role persistence.ScheduleRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{scheduleID: scheduleID, userID: userID}
	if _, ok := s.state.members[key]; ok {
		return persistence.ErrConflict
	}
	if _, ok := s.state.schedules[scheduleID]; !ok {
		return persistence.NewStorageError("add member", errMissingReference)
	}
	if _, ok := s.state.users[userID]; !ok {
		return persistence.NewStorageError("add member", errMissingReference)
	}
	if !role.Valid() {
		return persistence.NewStorageError("add member", errors.New("memory: invalid role"))
	}

	s.state.members[key] = memberRecord{role: role, createdAt: s.timestamp()}
	return nil
}

// SetMemberRole changes the role of an existing membership.
func (s *Store) SetMemberRole(ctx context.Context, scheduleID, userID uuid.UUID, role persistence.ScheduleRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{scheduleID: scheduleID, userID: userID}
	member, ok := s.state.members[key]
	if !ok {
		return persistence.ErrNotFound
	}
	if !role.Valid() {
		return persistence.NewStorageError("set member role", errors.New("memory: invalid role"))
	}
	member.role = role
	s.state.members[key] = member
	return nil
}

// --- ShiftStore implementation ---

// CreateShift stores an unassigned shift.
func (s *Store) CreateShift(ctx context.Context, ns persistence.NewShift) (persistence.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.schedules[ns.ScheduleID]; !ok {
		return persistence.Shift{}, persistence.NewStorageError("create shift", errMissingReference)
	}
	if _, ok := s.state.users[ns.CreatedBy]; !ok {
		return persistence.Shift{}, persistence.NewStorageError("create shift", errMissingReference)
	}
	if !ns.Period.Valid() {
		return persistence.Shift{}, persistence.NewStorageError("create shift", errors.New("memory: invalid period"))
	}

	shift := persistence.Shift{
		ID:         s.newID(),
		ScheduleID: ns.ScheduleID,
		StartsAt:   persistence.NormalizeTime(ns.StartsAt),
		EndsAt:     persistence.NormalizeTime(ns.EndsAt),
		Period:     ns.Period,
		CreatedBy:  ns.CreatedBy,
		CreatedAt:  s.timestamp(),
	}
	if _, ok := s.state.shifts[shift.ID]; ok {
		return persistence.Shift{}, persistence.ErrConflict
	}
	s.state.shifts[shift.ID] = shift
	return shift, nil
}

// ListShifts returns the schedule's shifts starting within [from, to).
func (s *Store) ListShifts(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]persistence.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from = persistence.NormalizeTime(from)
	to = persistence.NormalizeTime(to)

	out := make([]persistence.Shift, 0)
	for _, shift := range s.state.shifts {
		if shift.ScheduleID != scheduleID {
			continue
		}
		if shift.StartsAt.Before(from) || !shift.StartsAt.Before(to) {
			continue
		}
		out = append(out, shift)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return lessID(out[i].ID, out[j].ID)
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

// GetShift retrieves a shift by ID.
func (s *Store) GetShift(ctx context.Context, id uuid.UUID) (persistence.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, ok := s.state.shifts[id]
	if !ok {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	return shift, nil
}

// AssignShift sets or clears the shift assignee.
func (s *Store) AssignShift(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, ok := s.state.shifts[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if userID.Valid {
		if _, ok := s.state.users[userID.UUID]; !ok {
			return persistence.NewStorageError("assign shift", errMissingReference)
		}
	}
	shift.AssignedUserID = userID
	s.state.shifts[id] = shift
	return nil
}

// AddShiftComment appends a comment to a shift.
func (s *Store) AddShiftComment(ctx context.Context, nc persistence.NewShiftComment) (persistence.ShiftComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.shifts[nc.ShiftID]; !ok {
		return persistence.ShiftComment{}, persistence.NewStorageError("add shift comment", errMissingReference)
	}
	if _, ok := s.state.users[nc.UserID]; !ok {
		return persistence.ShiftComment{}, persistence.NewStorageError("add shift comment", errMissingReference)
	}

	comment := persistence.ShiftComment{
		ID:        s.newID(),
		ShiftID:   nc.ShiftID,
		UserID:    nc.UserID,
		Body:      nc.Body,
		CreatedAt: s.timestamp(),
	}
	s.state.comments[nc.ShiftID] = append(s.state.comments[nc.ShiftID], comment)
	return comment, nil
}

// ListShiftComments returns a shift's comments, oldest first.
func (s *Store) ListShiftComments(ctx context.Context, shiftID uuid.UUID) ([]persistence.ShiftComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.state.comments[shiftID])
	if out == nil {
		out = make([]persistence.ShiftComment, 0)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return lessID(out[i].ID, out[j].ID)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// --- TemplateStore implementation ---

// CreateTemplate stores a rotation template.
func (s *Store) CreateTemplate(ctx context.Context, nt persistence.NewTemplate) (persistence.RotationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.schedules[nt.ScheduleID]; !ok {
		return persistence.RotationTemplate{}, persistence.NewStorageError("create template", errMissingReference)
	}
	if _, ok := s.state.users[nt.CreatedBy]; !ok {
		return persistence.RotationTemplate{}, persistence.NewStorageError("create template", errMissingReference)
	}

	template := persistence.RotationTemplate{
		ID:         s.newID(),
		ScheduleID: nt.ScheduleID,
		Name:       nt.Name,
		Definition: bytes.Clone(nt.Definition),
		CreatedBy:  nt.CreatedBy,
		CreatedAt:  s.timestamp(),
	}
	s.state.templates[template.ID] = template
	return cloneTemplate(template), nil
}

// ListTemplates returns a schedule's templates, newest first.
func (s *Store) ListTemplates(ctx context.Context, scheduleID uuid.UUID) ([]persistence.RotationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.RotationTemplate, 0)
	for _, template := range s.state.templates {
		if template.ScheduleID == scheduleID {
			out = append(out, cloneTemplate(template))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return lessID(out[i].ID, out[j].ID)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetTemplate retrieves a template by ID.
func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (persistence.RotationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	template, ok := s.state.templates[id]
	if !ok {
		return persistence.RotationTemplate{}, persistence.ErrNotFound
	}
	return cloneTemplate(template), nil
}

func cloneTemplate(template persistence.RotationTemplate) persistence.RotationTemplate {
	template.Definition = bytes.Clone(template.Definition)
	return template
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
