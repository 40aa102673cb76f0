package sqlstore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

// CreateSchedule inserts the schedule and its creator's admin membership in
// one transaction.
func (s *Store) CreateSchedule(ctx context.Context, ns persistence.NewSchedule) (persistence.Schedule, error) {
	schedule := persistence.Schedule{
		ID:          s.newID(),
		Name:        ns.Name,
		SubjectType: ns.SubjectType,
		SubjectName: ns.SubjectName,
		CreatedBy:   ns.CreatedBy,
		CreatedAt:   s.timestamp(),
	}
	createdAt := s.dialect.timeArg(schedule.CreatedAt)

	err := withTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx,
			`INSERT INTO schedule (id, name, subject_type, subject_name, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			schedule.ID, schedule.Name, schedule.SubjectType, schedule.SubjectName, schedule.CreatedBy, createdAt,
		); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx,
			`INSERT INTO schedule_member (schedule_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
			schedule.ID, schedule.CreatedBy, string(persistence.RoleAdmin), createdAt,
		)
		return err
	})
	if err != nil {
		return persistence.Schedule{}, mapError("create schedule", err)
	}
	return schedule, nil
}

// ListSchedulesForUser returns the user's schedules, newest first.
func (s *Store) ListSchedulesForUser(ctx context.Context, userID uuid.UUID) ([]persistence.ScheduleWithRole, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT s.id, s.name, s.subject_type, s.subject_name, s.created_by, s.created_at, m.role
		FROM schedule s
		JOIN schedule_member m ON m.schedule_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.created_at DESC, s.id ASC`, userID)
	if err != nil {
		return nil, mapError("list schedules", err)
	}
	defer rows.Close()

	out := make([]persistence.ScheduleWithRole, 0)
	for rows.Next() {
		var (
			item persistence.ScheduleWithRole
			role string
		)
		sc := &item.Schedule
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.SubjectType, &sc.SubjectName, &sc.CreatedBy, scanTime(&sc.CreatedAt), &role); err != nil {
			return nil, mapError("list schedules", err)
		}
		item.Role = persistence.ScheduleRole(role)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list schedules", err)
	}
	return out, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Store) GetSchedule(ctx context.Context, id uuid.UUID) (persistence.Schedule, error) {
	var sc persistence.Schedule
	err := s.queryRow(ctx, s.db,
		`SELECT id, name, subject_type, subject_name, created_by, created_at FROM schedule WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.Name, &sc.SubjectType, &sc.SubjectName, &sc.CreatedBy, scanTime(&sc.CreatedAt))
	if err != nil {
		return persistence.Schedule{}, mapError("get schedule", err)
	}
	return sc, nil
}

// GetScheduleRole returns the user's role in the schedule.
func (s *Store) GetScheduleRole(ctx context.Context, scheduleID, userID uuid.UUID) (persistence.ScheduleRole, error) {
	var role string
	err := s.queryRow(ctx, s.db,
		`SELECT role FROM schedule_member WHERE schedule_id = ? AND user_id = ?`, scheduleID, userID,
	).Scan(&role)
	if err != nil {
		return "", mapError("get schedule role", err)
	}
	return persistence.ScheduleRole(role), nil
}

// ListScheduleMembers returns members in the order they joined.
func (s *Store) ListScheduleMembers(ctx context.Context, scheduleID uuid.UUID) ([]persistence.Member, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT u.id, u.email, u.is_superadmin, u.created_at, m.role
		FROM schedule_member m
		JOIN app_user u ON u.id = m.user_id
		WHERE m.schedule_id = ?
		ORDER BY m.created_at ASC, u.id ASC`, scheduleID)
	if err != nil {
		return nil, mapError("list members", err)
	}
	defer rows.Close()

	out := make([]persistence.Member, 0)
	for rows.Next() {
		var (
			member persistence.Member
			role   string
		)
		u := &member.User
		if err := rows.Scan(&u.ID, &u.Email, &u.IsSuperadmin, scanTime(&u.CreatedAt), &role); err != nil {
			return nil, mapError("list members", err)
		}
		member.Role = persistence.ScheduleRole(role)
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list members", err)
	}
	return out, nil
}

// AddMember inserts a membership; an existing pair is a conflict.
func (s *Store) AddMember(ctx context.Context, scheduleID, userID uuid.UUID, role persistence.ScheduleRole) error {
	_, err := s.exec(ctx, s.db,
		`INSERT INTO schedule_member (schedule_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		scheduleID, userID, string(role), s.dialect.timeArg(s.timestamp()),
	)
	return mapError("add member", err)
}

// SetMemberRole changes the role of an existing membership.
func (s *Store) SetMemberRole(ctx context.Context, scheduleID, userID uuid.UUID, role persistence.ScheduleRole) error {
	return s.execAffecting(ctx, "set member role",
		`UPDATE schedule_member SET role = ? WHERE schedule_id = ? AND user_id = ?`,
		string(role), scheduleID, userID,
	)
}
