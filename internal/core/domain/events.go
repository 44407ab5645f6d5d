package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	Username     *string
	Reactivated  bool
	RegisteredAt time.Time
	IP           string
}

// SessionRevokedEvent represents the payload for auth.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	UserID    string
	Reason    string
	RevokedAt time.Time
}

// Session revocation reasons.
const (
	RevokeReasonLogout   = "logout"
	RevokeReasonRotation = "rotation"
	RevokeReasonPruned   = "pruned"
	RevokeReasonManual   = "manual"
)
