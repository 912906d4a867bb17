package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// SessionsRepository stores owner refresh sessions. Only token hashes are
// kept; rows go away with their user.
type SessionsRepository struct {
	db *sql.DB
}

// NewSessionsRepository creates a new sessions repository.
func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

const sessionColumns = `id, user_id, token_hash, created_at, expires_at, revoked_at, last_seen_at, metadata`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var sess domain.Session
	err := row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.TokenHash,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&sess.RevokedAt,
		&sess.LastSeenAt,
		&sess.Metadata,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Create stores a new session.
func (r *SessionsRepository) Create(ctx context.Context, sess *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_hash, created_at, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		sess.ID, sess.UserID, sess.TokenHash,
		sess.CreatedAt, sess.ExpiresAt, sess.Metadata,
	)
	return err
}

// GetByTokenHash finds a live (unrevoked) session. Expiry is left to the caller.
func (r *SessionsRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1 AND revoked_at IS NULL`
	return scanSession(r.db.QueryRowContext(ctx, query, tokenHash))
}

// Revoke ends a session by ID, e.g. after a fingerprint mismatch.
func (r *SessionsRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.revoke(ctx, `id = $1`, id, true)
}

// RevokeByTokenHash ends the session behind a refresh cookie on logout.
// Unknown tokens are not an error.
func (r *SessionsRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return r.revoke(ctx, `token_hash = $1`, tokenHash, false)
}

func (r *SessionsRepository) revoke(ctx context.Context, where string, arg any, mustExist bool) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE ` + where + ` AND revoked_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil || !mustExist {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// UpdateLastSeen stamps a refresh.
func (r *SessionsRepository) UpdateLastSeen(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sessions SET last_seen_at = NOW() WHERE id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteExpired removes sessions that expired or were revoked more than
// olderThan ago. The purge ticker in cmd/digimenu calls it.
func (r *SessionsRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`
	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
