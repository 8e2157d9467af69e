package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/atlaserp/portal-gateway/internal/errors"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS portal_sessions (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	email              TEXT NOT NULL,
	name               TEXT,
	refresh_token_hash TEXT NOT NULL UNIQUE,
	created_at         TEXT NOT NULL,
	expires_at         TEXT NOT NULL,
	revoked            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_portal_sessions_user ON portal_sessions(user_id);
`

// SQLiteRepo implements Repo using SQLite, surviving gateway restarts.
type SQLiteRepo struct {
	db *sql.DB
}

// OpenSQLiteRepo opens (or creates) the session database at path and
// applies the schema. Use ":memory:" for an ephemeral store.
func OpenSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("[OpenSQLiteRepo] opening session store: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		return nil, fmt.Errorf("[OpenSQLiteRepo] applying session schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO portal_sessions (id, user_id, email, name, refresh_token_hash, created_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Email, session.Name, session.RefreshTokenHash,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
		boolToInt(session.Revoked),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Get(ctx context.Context, id string) (*Session, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *SQLiteRepo) GetByRefreshHash(ctx context.Context, refreshHash string) (*Session, error) {
	return r.getWhere(ctx, "refresh_token_hash = ?", refreshHash)
}

func (r *SQLiteRepo) getWhere(ctx context.Context, where string, arg any) (*Session, error) {
	var s Session
	var revoked int
	var createdAt, expiresAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, name, refresh_token_hash, created_at, expires_at, revoked
		 FROM portal_sessions WHERE `+where, arg,
	).Scan(&s.ID, &s.UserID, &s.Email, &s.Name, &s.RefreshTokenHash, &createdAt, &expiresAt, &revoked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s.Revoked = revoked != 0
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	return &s, nil
}

// Rotate atomically revokes the consumed session and creates its
// replacement. A transaction prevents TOCTOU races during refresh.
func (r *SQLiteRepo) Rotate(ctx context.Context, oldID string, replacement *Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rotation transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"UPDATE portal_sessions SET revoked = 1 WHERE id = ?", oldID); err != nil {
		return fmt.Errorf("revoking consumed session: %w", err)
	}

	if replacement.ID == "" {
		replacement.ID = uuid.New().String()
	}
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO portal_sessions (id, user_id, email, name, refresh_token_hash, created_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		replacement.ID, replacement.UserID, replacement.Email, replacement.Name, replacement.RefreshTokenHash,
		replacement.CreatedAt.UTC().Format(time.RFC3339),
		replacement.ExpiresAt.UTC().Format(time.RFC3339),
		boolToInt(replacement.Revoked),
	); err != nil {
		return fmt.Errorf("creating replacement session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rotation: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE portal_sessions SET revoked = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE portal_sessions SET revoked = 1 WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("revoking sessions for user: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ListActiveByUser(ctx context.Context, userID string) ([]Session, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, email, name, refresh_token_hash, created_at, expires_at, revoked
		 FROM portal_sessions
		 WHERE user_id = ? AND revoked = 0 AND expires_at > ?
		 ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	defer rows.Close()

	active := []Session{}
	for rows.Next() {
		var s Session
		var revoked int
		var createdAt, expiresAt string

		if err := rows.Scan(&s.ID, &s.UserID, &s.Email, &s.Name, &s.RefreshTokenHash,
			&createdAt, &expiresAt, &revoked); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Revoked = revoked != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
		active = append(active, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return active, nil
}

func (r *SQLiteRepo) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		"DELETE FROM portal_sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	count, _ := result.RowsAffected()
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Repo = (*SQLiteRepo)(nil)
