package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Sessions is the in-memory sessions table.
type Sessions struct {
	s *Store
}

// Create creates a new session.
func (ss *Sessions) Create(_ context.Context, session *domain.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	ss.s.sessions[session.ID] = *session
	return nil
}

// GetByTokenHash retrieves a non-revoked session by token hash.
func (ss *Sessions) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	for _, sess := range ss.s.sessions {
		if sess.TokenHash == tokenHash && sess.RevokedAt == nil {
			return &sess, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

// Revoke revokes a session.
func (ss *Sessions) Revoke(_ context.Context, id uuid.UUID) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	sess, ok := ss.s.sessions[id]
	if !ok || sess.RevokedAt != nil {
		return domain.ErrSessionNotFound
	}
	now := ss.s.now()
	sess.RevokedAt = &now
	ss.s.sessions[id] = sess
	return nil
}

// RevokeByTokenHash revokes a session by token hash.
func (ss *Sessions) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	now := ss.s.now()
	for id, sess := range ss.s.sessions {
		if sess.TokenHash == tokenHash && sess.RevokedAt == nil {
			sess.RevokedAt = &now
			ss.s.sessions[id] = sess
		}
	}
	return nil
}

// UpdateLastSeen updates the last seen timestamp.
func (ss *Sessions) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	sess, ok := ss.s.sessions[id]
	if !ok || sess.RevokedAt != nil {
		return nil
	}
	now := ss.s.now()
	sess.LastSeenAt = &now
	ss.s.sessions[id] = sess
	return nil
}

// DeleteExpired deletes sessions that expired or were revoked before the cutoff.
func (ss *Sessions) DeleteExpired(_ context.Context, olderThan time.Duration) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	cutoff := ss.s.now().Add(-olderThan)
	var n int64
	for id, sess := range ss.s.sessions {
		if sess.ExpiresAt.Before(cutoff) || (sess.RevokedAt != nil && sess.RevokedAt.Before(cutoff)) {
			delete(ss.s.sessions, id)
			n++
		}
	}
	return n, nil
}
