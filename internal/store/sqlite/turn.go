package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/crestline/mentor/internal/store"
	"github.com/google/uuid"
)

func (d *DB) InsertTurn(ctx context.Context, t *store.Turn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO turns
			(id, session_id, query, content, category, source_backend,
			 success, cached, latency_ms, disclosure, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Query, t.Content, t.Category, t.SourceBackend,
		t.Success, t.Cached, t.LatencyMs, t.Disclosure, formatTime(t.CreatedAt),
	)
	return err
}

func (d *DB) ListTurns(ctx context.Context, f store.TurnFilter) ([]store.Turn, error) {
	var conds []string
	var args []any

	if f.SessionID != nil {
		conds = append(conds, "session_id = ?")
		args = append(args, *f.SessionID)
	}
	if f.Backend != nil {
		conds = append(conds, "source_backend = ?")
		args = append(args, *f.Backend)
	}
	if f.After != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(*f.After))
	}

	query := `
		SELECT id, session_id, query, content, category, source_backend,
		       success, cached, latency_ms, disclosure, created_at
		FROM turns`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := d.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Turn
	for rows.Next() {
		var t store.Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Query, &t.Content,
			&t.Category, &t.SourceBackend, &t.Success, &t.Cached,
			&t.LatencyMs, &t.Disclosure, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) GetTurnStats(ctx context.Context) (*store.TurnStats, error) {
	var s store.TurnStats
	err := d.q.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN cached THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM turns`,
	).Scan(&s.TotalTurns, &s.SuccessCount, &s.CachedCount, &s.AvgLatencyMs)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
