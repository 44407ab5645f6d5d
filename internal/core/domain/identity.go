package domain

import (
	"strings"
	"time"
)

// AccountState enumerates the login-relevant states of a credential record.
type AccountState string

const (
	AccountActiveUnlocked AccountState = "active_unlocked"
	AccountActiveLocked   AccountState = "active_locked"
	AccountDeactivated    AccountState = "deactivated"
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID             string
	Email          string
	Username       *string
	FullName       string
	Timezone       string
	PasswordHash   string
	IsActive       bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// State derives the account state at the supplied moment. A lock whose expiry
// has passed reports as unlocked; the stored fields are only cleared on the next write.
func (u User) State(at time.Time) AccountState {
	if !u.IsActive {
		return AccountDeactivated
	}
	if u.LockedUntil != nil && at.Before(*u.LockedUntil) {
		return AccountActiveLocked
	}
	return AccountActiveUnlocked
}

// LockExpired reports whether a lock was set but is no longer in force.
func (u User) LockExpired(at time.Time) bool {
	return u.LockedUntil != nil && !at.Before(*u.LockedUntil)
}

// Handle returns the display handle carried in tokens: the username when present, otherwise the email.
func (u User) Handle() string {
	if u.Username != nil {
		if name := strings.TrimSpace(*u.Username); name != "" {
			return name
		}
	}
	return u.Email
}

// Sanitized returns a copy without the password hash.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// Identity is the subset of a user carried into issued tokens.
type Identity struct {
	UserID string
	Handle string
}

// IdentityOf builds the token identity for a user.
func IdentityOf(u User) Identity {
	return Identity{UserID: u.ID, Handle: u.Handle()}
}

// LoginOutcome classifies a login attempt for audit purposes.
type LoginOutcome string

const (
	LoginSucceeded          LoginOutcome = "success"
	LoginInvalidCredentials LoginOutcome = "invalid_credentials"
	LoginLocked             LoginOutcome = "locked"
	LoginDeactivated        LoginOutcome = "deactivated"
)

// LoginAttempt records authentication attempts for audit.
type LoginAttempt struct {
	ID                string
	UserID            *string
	Email             string
	Outcome           LoginOutcome
	IP                string
	ClientLabel       string
	AttemptsRemaining int
	OccurredAt        time.Time
}
