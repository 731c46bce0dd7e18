package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Setting returns the stored value for key on server, or def when unset.
func (d *DB) Setting(ctx context.Context, server, key, def string) (string, error) {
	var v string
	err := d.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE server_url = ? AND key = ?", server, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("loading setting %s: %w", key, err)
	}
	return v, nil
}

// SetSetting stores value for key on server.
func (d *DB) SetSetting(ctx context.Context, server, key, value string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `INSERT INTO settings (server_url, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(server_url, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		server, key, value, now,
	)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return tx.Commit()
}
