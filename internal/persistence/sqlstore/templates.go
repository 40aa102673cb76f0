package sqlstore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/example/shift-scheduler/internal/persistence"
)

const templateColumns = `id, schedule_id, name, definition, created_by, created_at`

func scanTemplate(row rowScanner) (persistence.RotationTemplate, error) {
	var (
		t          persistence.RotationTemplate
		definition string
	)
	err := row.Scan(&t.ID, &t.ScheduleID, &t.Name, &definition, &t.CreatedBy, scanTime(&t.CreatedAt))
	t.Definition = json.RawMessage(definition)
	return t, err
}

// CreateTemplate inserts a rotation template. The definition is stored
// byte-for-byte.
func (s *Store) CreateTemplate(ctx context.Context, nt persistence.NewTemplate) (persistence.RotationTemplate, error) {
	template := persistence.RotationTemplate{
		ID:         s.newID(),
		ScheduleID: nt.ScheduleID,
		Name:       nt.Name,
		Definition: append(json.RawMessage(nil), nt.Definition...),
		CreatedBy:  nt.CreatedBy,
		CreatedAt:  s.timestamp(),
	}
	_, err := s.exec(ctx, s.db,
		`INSERT INTO rotation_template (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		template.ID, template.ScheduleID, template.Name, string(template.Definition),
		template.CreatedBy, s.dialect.timeArg(template.CreatedAt),
	)
	if err != nil {
		return persistence.RotationTemplate{}, mapError("create template", err)
	}
	return template, nil
}

// ListTemplates returns a schedule's templates, newest first.
func (s *Store) ListTemplates(ctx context.Context, scheduleID uuid.UUID) ([]persistence.RotationTemplate, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+templateColumns+` FROM rotation_template
		WHERE schedule_id = ?
		ORDER BY created_at DESC, id ASC`, scheduleID)
	if err != nil {
		return nil, mapError("list templates", err)
	}
	defer rows.Close()

	out := make([]persistence.RotationTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, mapError("list templates", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list templates", err)
	}
	return out, nil
}

// GetTemplate retrieves a template by ID.
func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (persistence.RotationTemplate, error) {
	t, err := scanTemplate(s.queryRow(ctx, s.db, `SELECT `+templateColumns+` FROM rotation_template WHERE id = ?`, id))
	if err != nil {
		return persistence.RotationTemplate{}, mapError("get template", err)
	}
	return t, nil
}
