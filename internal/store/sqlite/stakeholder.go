package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crestline/mentor/internal/store"
	"github.com/google/uuid"
)

func (d *DB) UpsertStakeholder(ctx context.Context, s *store.Stakeholder) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO stakeholders
			(id, name, role, influence, interest, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			role = excluded.role,
			influence = excluded.influence,
			interest = excluded.interest,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		s.ID, s.Name, s.Role, s.Influence, s.Interest, s.Notes,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	return err
}

func (d *DB) GetStakeholder(ctx context.Context, id string) (*store.Stakeholder, error) {
	var s store.Stakeholder
	var createdAt, updatedAt string
	err := d.q.QueryRowContext(ctx, `
		SELECT id, name, role, influence, interest, notes, created_at, updated_at
		FROM stakeholders WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Role, &s.Influence, &s.Interest, &s.Notes,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func (d *DB) ListStakeholders(ctx context.Context) ([]store.Stakeholder, error) {
	rows, err := d.q.QueryContext(ctx, `
		SELECT id, name, role, influence, interest, notes, created_at, updated_at
		FROM stakeholders ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Stakeholder
	for rows.Next() {
		var s store.Stakeholder
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Influence, &s.Interest,
			&s.Notes, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(createdAt)
		s.UpdatedAt = parseTime(updatedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) DeleteStakeholder(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM stakeholders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}
