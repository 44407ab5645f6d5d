package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Aro-geo/focusmate-app-sub002/internal/validation"
)

var (
	// ErrDisposableDomain indicates the email domain is on the disposable denylist.
	ErrDisposableDomain = validation.ErrDisposableDomain
	// ErrAccountDeactivated indicates the account was deactivated and cannot log in.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrAccountExists indicates an active account already uses the email.
	ErrAccountExists = errors.New("an account with this email already exists")
	// ErrUsernameTaken indicates another account already uses the username.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrInvalidRefreshToken indicates the refresh token has no live session behind it.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrSessionNotFound indicates the session does not exist or is not owned by the caller.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError carries every field-level problem found in the input.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.Fields))
}

// RateLimitExceededError indicates the caller must wait before retrying.
type RateLimitExceededError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Scope, e.RetryAfter)
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func (e *RateLimitExceededError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// InvalidCredentialsError is returned for unknown emails and wrong passwords alike.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid email or password"
}

// AccountLockedError indicates the account is locked until Until.
type AccountLockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked for %d more minute(s)", e.RemainingMinutes())
}

// RemainingMinutes rounds the remaining lock time up to whole minutes.
func (e *AccountLockedError) RemainingMinutes() int {
	return int(math.Ceil(e.Remaining.Minutes()))
}

// StoreError wraps a failure talking to the credential or session store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
