package usecase

import (
	"context"
	"time"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
)

// Lockout defaults.
const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 30 * time.Minute
)

// AccountGuard applies progressive lockout to credential records.
type AccountGuard struct {
	users     port.UserRepository
	threshold int
	lockFor   time.Duration
	now       func() time.Time
}

// NewAccountGuard constructs an AccountGuard. Non-positive settings fall back to the defaults.
func NewAccountGuard(users port.UserRepository, threshold int, lockFor time.Duration) *AccountGuard {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if lockFor <= 0 {
		lockFor = DefaultLockoutDuration
	}
	return &AccountGuard{
		users:     users,
		threshold: threshold,
		lockFor:   lockFor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (g *AccountGuard) WithClock(clock func() time.Time) {
	if clock != nil {
		g.now = clock
	}
}

// Threshold returns the number of failures that triggers a lock.
func (g *AccountGuard) Threshold() int {
	return g.threshold
}

// Admit decides whether a login attempt may proceed to password verification.
func (g *AccountGuard) Admit(user domain.User) error {
	now := g.now()
	switch user.State(now) {
	case domain.AccountDeactivated:
		return ErrAccountDeactivated
	case domain.AccountActiveLocked:
		return &AccountLockedError{Until: *user.LockedUntil, Remaining: user.LockedUntil.Sub(now)}
	default:
		return nil
	}
}

// RecordFailure counts a wrong password and locks the account when the threshold
// is reached. The counter and lock are written in one update. The returned error
// is the one to report to the caller.
func (g *AccountGuard) RecordFailure(ctx context.Context, user *domain.User) error {
	now := g.now()

	if user.LockExpired(now) {
		user.FailedAttempts = 0
		user.LockedUntil = nil
	}

	user.FailedAttempts++
	user.UpdatedAt = now

	var locked *AccountLockedError
	if user.FailedAttempts >= g.threshold {
		until := now.Add(g.lockFor)
		user.LockedUntil = &until
		locked = &AccountLockedError{Until: until, Remaining: g.lockFor}
	}

	if err := g.users.Update(ctx, *user); err != nil {
		return storeError("record failed login", err)
	}

	if locked != nil {
		return locked
	}
	return &InvalidCredentialsError{AttemptsRemaining: max(0, g.threshold-user.FailedAttempts)}
}

// RecordSuccess clears the counter and lock and stamps the last login.
func (g *AccountGuard) RecordSuccess(ctx context.Context, user *domain.User) error {
	now := g.now()

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	user.UpdatedAt = now

	if err := g.users.Update(ctx, *user); err != nil {
		return storeError("record successful login", err)
	}
	return nil
}
