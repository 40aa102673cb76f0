package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

const shiftColumns = `id, schedule_id, starts_at, ends_at, period, assigned_user_id, created_by, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (persistence.Shift, error) {
	var (
		shift  persistence.Shift
		period string
	)
	err := row.Scan(
		&shift.ID, &shift.ScheduleID,
		scanTime(&shift.StartsAt), scanTime(&shift.EndsAt),
		&period, &shift.AssignedUserID, &shift.CreatedBy,
		scanTime(&shift.CreatedAt),
	)
	shift.Period = persistence.Period(period)
	return shift, err
}

// CreateShift inserts an unassigned shift.
func (s *Store) CreateShift(ctx context.Context, ns persistence.NewShift) (persistence.Shift, error) {
	shift := persistence.Shift{
		ID:         s.newID(),
		ScheduleID: ns.ScheduleID,
		StartsAt:   persistence.NormalizeTime(ns.StartsAt),
		EndsAt:     persistence.NormalizeTime(ns.EndsAt),
		Period:     ns.Period,
		CreatedBy:  ns.CreatedBy,
		CreatedAt:  s.timestamp(),
	}

	_, err := s.exec(ctx, s.db,
		`INSERT INTO shift (`+shiftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		shift.ID, shift.ScheduleID,
		s.dialect.timeArg(shift.StartsAt), s.dialect.timeArg(shift.EndsAt),
		string(shift.Period), shift.AssignedUserID, shift.CreatedBy,
		s.dialect.timeArg(shift.CreatedAt),
	)
	if err != nil {
		return persistence.Shift{}, mapError("create shift", err)
	}
	return shift, nil
}

// ListShifts returns the schedule's shifts starting within [from, to).
func (s *Store) ListShifts(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]persistence.Shift, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+shiftColumns+` FROM shift
		WHERE schedule_id = ? AND starts_at >= ? AND starts_at < ?
		ORDER BY starts_at ASC, id ASC`,
		scheduleID, s.dialect.timeArg(from), s.dialect.timeArg(to),
	)
	if err != nil {
		return nil, mapError("list shifts", err)
	}
	defer rows.Close()

	out := make([]persistence.Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, mapError("list shifts", err)
		}
		out = append(out, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list shifts", err)
	}
	return out, nil
}

// GetShift retrieves a shift by ID.
func (s *Store) GetShift(ctx context.Context, id uuid.UUID) (persistence.Shift, error) {
	shift, err := scanShift(s.queryRow(ctx, s.db, `SELECT `+shiftColumns+` FROM shift WHERE id = ?`, id))
	if err != nil {
		return persistence.Shift{}, mapError("get shift", err)
	}
	return shift, nil
}

// AssignShift sets or clears the assignee.
func (s *Store) AssignShift(ctx context.Context, id uuid.UUID, userID uuid.NullUUID) error {
	return s.execAffecting(ctx, "assign shift",
		`UPDATE shift SET assigned_user_id = ? WHERE id = ?`, userID, id)
}

// AddShiftComment inserts a comment on a shift.
func (s *Store) AddShiftComment(ctx context.Context, nc persistence.NewShiftComment) (persistence.ShiftComment, error) {
	comment := persistence.ShiftComment{
		ID:        s.newID(),
		ShiftID:   nc.ShiftID,
		UserID:    nc.UserID,
		Body:      nc.Body,
		CreatedAt: s.timestamp(),
	}
	_, err := s.exec(ctx, s.db,
		`INSERT INTO shift_comment (id, shift_id, user_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.ShiftID, comment.UserID, comment.Body, s.dialect.timeArg(comment.CreatedAt),
	)
	if err != nil {
		return persistence.ShiftComment{}, mapError("add shift comment", err)
	}
	return comment, nil
}

// ListShiftComments returns a shift's comments, oldest first.
func (s *Store) ListShiftComments(ctx context.Context, shiftID uuid.UUID) ([]persistence.ShiftComment, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, shift_id, user_id, body, created_at FROM shift_comment
		WHERE shift_id = ?
		ORDER BY created_at ASC, id ASC`, shiftID)
	if err != nil {
		return nil, mapError("list shift comments", err)
	}
	defer rows.Close()

	out := make([]persistence.ShiftComment, 0)
	for rows.Next() {
		var c persistence.ShiftComment
		if err := rows.Scan(&c.ID, &c.ShiftID, &c.UserID, &c.Body, scanTime(&c.CreatedAt)); err != nil {
			return nil, mapError("list shift comments", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list shift comments", err)
	}
	return out, nil
}
