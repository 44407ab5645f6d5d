package domain

import "time"

// Session represents one issued refresh token. Rows are never updated after insert;
// rotation writes a new row and deletes the old one.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash string
	IP               *string
	UserAgent        *string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

// IsExpired reports whether the session is dead at the supplied moment.
func (s Session) IsExpired(at time.Time) bool {
	return !s.ExpiresAt.After(at)
}

// SessionMetadata captures client details recorded alongside a new session.
type SessionMetadata struct {
	IP        string
	UserAgent string
}
