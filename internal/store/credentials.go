package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Credential is a saved login for one server.
type Credential struct {
	ServerURL string
	Username  string
	Token     string
	SavedAt   time.Time
}

// LoadToken returns the saved token for server, or "" when there is none.
func (d *DB) LoadToken(ctx context.Context, server string) (string, error) {
	c, err := d.Credential(ctx, server)
	if err != nil || c == nil {
		return "", err
	}
	return c.Token, nil
}

// Credential returns the saved login for server, or nil when there is none.
func (d *DB) Credential(ctx context.Context, server string) (*Credential, error) {
	var c Credential
	var savedAt string
	err := d.db.QueryRowContext(ctx,
		"SELECT server_url, username, token, saved_at FROM credentials WHERE server_url = ?", server,
	).Scan(&c.ServerURL, &c.Username, &c.Token, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	c.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return &c, nil
}

// SaveToken stores or replaces the token for server.
func (d *DB) SaveToken(ctx context.Context, server, username, token string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.db.ExecContext(ctx, `INSERT OR REPLACE INTO credentials
		(server_url, username, token, saved_at) VALUES (?, ?, ?, ?)`,
		server, username, token, now,
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// DeleteToken forgets the token for server. Deleting a missing row is not an error.
func (d *DB) DeleteToken(ctx context.Context, server string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM credentials WHERE server_url = ?", server); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// Credentials lists every saved login, newest first.
func (d *DB) Credentials(ctx context.Context) ([]Credential, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT server_url, username, token, saved_at FROM credentials ORDER BY saved_at DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Credential
	for rows.Next() {
		var c Credential
		var savedAt string
		if err := rows.Scan(&c.ServerURL, &c.Username, &c.Token, &savedAt); err != nil {
			return nil, err
		}
		c.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
