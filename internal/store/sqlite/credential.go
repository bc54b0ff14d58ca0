package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crestline/mentor/internal/store"
)

func (d *DB) PutCredential(ctx context.Context, c *store.Credential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO credentials (key, encrypted_data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			encrypted_data = excluded.encrypted_data,
			updated_at = excluded.updated_at`,
		c.Key, c.EncryptedData, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	return err
}

func (d *DB) GetCredential(ctx context.Context, key string) (*store.Credential, error) {
	var c store.Credential
	var createdAt, updatedAt string
	err := d.q.QueryRowContext(ctx, `
		SELECT key, encrypted_data, created_at, updated_at
		FROM credentials WHERE key = ?`, key,
	).Scan(&c.Key, &c.EncryptedData, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func (d *DB) ListCredentialKeys(ctx context.Context) ([]string, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT key FROM credentials ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (d *DB) DeleteCredential(ctx context.Context, key string) error {
	res, err := d.q.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}
