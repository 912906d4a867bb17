package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is an owner's refresh session. The refresh token itself is never
// stored, only its hash.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastSeenAt *time.Time
	Metadata   json.RawMessage
}

// SessionMetadata records where a session was opened. Fingerprint is set
// only when device binding is enabled.
type SessionMetadata struct {
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// IsValid reports whether the session may still mint access tokens.
func (s *Session) IsValid() bool {
	if s.RevokedAt != nil {
		return false
	}
	return time.Now().Before(s.ExpiresAt)
}

// TokenPair is what sign-in hands to the auth cookies. ExpiresAt is the
// access token's expiry.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
