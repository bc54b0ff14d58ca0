package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crestline/mentor/internal/store"
	"github.com/google/uuid"
)

func (d *DB) CreateSession(ctx context.Context, s *store.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO sessions (id, persona, started_at, ended_at)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.Persona, formatTime(s.StartedAt), formatTimePtr(s.EndedAt),
	)
	return mapConstraintError(err)
}

func (d *DB) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var s store.Session
	var startedAt string
	var endedAt *string
	err := d.q.QueryRowContext(ctx, `
		SELECT id, persona, started_at, ended_at
		FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Persona, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.StartedAt = parseTime(startedAt)
	s.EndedAt = parseTimePtr(endedAt)
	return &s, nil
}

func (d *DB) EndSession(ctx context.Context, id string) error {
	now := formatTime(time.Now().UTC())
	res, err := d.q.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		now, id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (d *DB) ListSessions(ctx context.Context, limit int) ([]store.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.q.QueryContext(ctx, `
		SELECT id, persona, started_at, ended_at
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Session
	for rows.Next() {
		var s store.Session
		var startedAt string
		var endedAt *string
		if err := rows.Scan(&s.ID, &s.Persona, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		s.StartedAt = parseTime(startedAt)
		s.EndedAt = parseTimePtr(endedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
