package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Mutation is a failed state-changing request kept for a later retry.
type Mutation struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Body      []byte    `json:"body,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrMutationNotFound is returned when an outbox id is unknown.
var ErrMutationNotFound = errors.New("outbox: mutation not found")

// Outbox is a SQLite table of failed mutations, shared by the board and the CLI.
type Outbox struct {
	db  *sql.DB
	now func() time.Time
}

func OutboxPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "outbox.sqlite"), nil
}

// OpenOutbox opens (creating if needed) the outbox at path.
func OpenOutbox(ctx context.Context, path string) (*Outbox, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("outbox: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL: the CLI and a running board may touch the outbox at the same time.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateOutbox(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Outbox{db: db, now: time.Now}, nil
}

// OpenDefaultOutbox opens ~/.retroquest/outbox.sqlite.
func OpenDefaultOutbox(ctx context.Context) (*Outbox, error) {
	path, err := OutboxPath()
	if err != nil {
		return nil, err
	}
	return OpenOutbox(ctx, path)
}

func migrateOutbox(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mutations (
			id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			body BLOB,
			last_error TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 1,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_team ON mutations(team_id, created_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("outbox: migrate: %w", err)
		}
	}
	return nil
}

func (o *Outbox) Close() error {
	if o == nil || o.db == nil {
		return nil
	}
	return o.db.Close()
}

// Record stores a failed mutation and returns it with its new id.
func (o *Outbox) Record(ctx context.Context, m Mutation) (Mutation, error) {
	if strings.TrimSpace(m.TeamID) == "" || strings.TrimSpace(m.Method) == "" || strings.TrimSpace(m.Path) == "" {
		return Mutation{}, errors.New("outbox: team, method and path are required")
	}
	now := o.now().UTC()
	m.ID = uuid.NewString()
	if m.Attempts <= 0 {
		m.Attempts = 1
	}
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := o.db.ExecContext(ctx,
		`INSERT INTO mutations(id, team_id, method, path, body, last_error, attempts, created_at_unixms, updated_at_unixms)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.TeamID, m.Method, m.Path, m.Body, m.LastError, m.Attempts, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return Mutation{}, fmt.Errorf("outbox: record: %w", err)
	}
	return m, nil
}

// List returns the team's pending mutations, oldest first.
func (o *Outbox) List(ctx context.Context, teamID string) ([]Mutation, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, team_id, method, path, body, last_error, attempts, created_at_unixms, updated_at_unixms
		 FROM mutations WHERE team_id = ? ORDER BY created_at_unixms, rowid`, teamID)
	if err != nil {
		return nil, fmt.Errorf("outbox: list: %w", err)
	}
	defer rows.Close()

	out := []Mutation{}
	for rows.Next() {
		var (
			m                Mutation
			created, updated int64
		)
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Method, &m.Path, &m.Body, &m.LastError, &m.Attempts, &created, &updated); err != nil {
			return nil, fmt.Errorf("outbox: scan: %w", err)
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		m.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkFailed bumps the attempt counter after another failed retry.
func (o *Outbox) MarkFailed(ctx context.Context, id string, lastErr string) error {
	res, err := o.db.ExecContext(ctx,
		`UPDATE mutations SET attempts = attempts + 1, last_error = ?, updated_at_unixms = ? WHERE id = ?`,
		lastErr, o.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("outbox: mark failed: %w", err)
	}
	return requireOneRow(res)
}

func (o *Outbox) Delete(ctx context.Context, id string) error {
	res, err := o.db.ExecContext(ctx, `DELETE FROM mutations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("outbox: delete: %w", err)
	}
	return requireOneRow(res)
}

// Clear removes every pending mutation of the team and reports how many were dropped.
func (o *Outbox) Clear(ctx context.Context, teamID string) (int, error) {
	res, err := o.db.ExecContext(ctx, `DELETE FROM mutations WHERE team_id = ?`, teamID)
	if err != nil {
		return 0, fmt.Errorf("outbox: clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMutationNotFound
	}
	return nil
}
