package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/ratelimit"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/security"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]domain.User
	updates   int
	updateErr error
	findErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			copy := u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username != nil && strings.EqualFold(*u.Username, username) {
			copy := u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copy := u
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Insert(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = user
	r.updates++
	return nil
}

func (r *fakeUserRepo) get(t *testing.T, id string) domain.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		t.Fatalf("user %s not stored", id)
	}
	return u
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessionRepo) Insert(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSessionRepo) DeleteByIDs(_ context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := r.sessions[id]; ok {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeSessionRepo) FindByTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshTokenHash == hash {
			copy := s
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// countingHasher stores "hashed:<password>" and counts calls.
type countingHasher struct {
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(_ context.Context, password string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(password) < security.MinHashInputLength {
		return "", security.ErrWeakPassword
	}
	h.hashes++
	return "hashed:" + password, nil
}

func (h *countingHasher) Verify(_ context.Context, password, encoded string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifies++
	return encoded == "hashed:"+password
}

func (h *countingHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type recordingAudit struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
	err      error
}

func (a *recordingAudit) RecordLoginAttempt(_ context.Context, attempt domain.LoginAttempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts = append(a.attempts, attempt)
	return a.err
}

func (a *recordingAudit) outcomes() []domain.LoginOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.LoginOutcome, 0, len(a.attempts))
	for _, at := range a.attempts {
		out = append(out, at.Outcome)
	}
	return out
}

type recordingEvents struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	revoked    []domain.SessionRevokedEvent
}

func (e *recordingEvents) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered = append(e.registered, event)
	return nil
}

func (e *recordingEvents) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revoked = append(e.revoked, event)
	return nil
}

func (e *recordingEvents) PublishLoginAttempt(context.Context, domain.LoginAttempt) error {
	return nil
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, int, time.Duration) (port.RateLimitResult, error) {
	return port.RateLimitResult{}, errors.New("limiter down")
}

// testClock is a settable clock shared by every component of a harness.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authHarness struct {
	svc      *AuthService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	hasher   *countingHasher
	tokens   *security.TokenService
	audit    *recordingAudit
	events   *recordingEvents
	clock    *testClock
	cfg      *config.AppConfig
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		RateLimit: config.RateLimitSettings{
			WindowDuration:      15 * time.Minute,
			LoginMaxAttempts:    100,
			RegisterMaxAttempts: 100,
			RefreshMaxAttempts:  100,
		},
		Lockout:  config.LockoutSettings{Threshold: 5, Duration: 30 * time.Minute, AuditTimeout: time.Second},
		Sessions: config.SessionSettings{Keep: 5},
	}
}

func newAuthHarness(t *testing.T, mutate func(cfg *config.AppConfig)) *authHarness {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	hasher := &countingHasher{}
	audit := &recordingAudit{}
	events := &recordingEvents{}
	logger := zaptest.NewLogger(t)

	tokens, err := security.NewTokenService(security.TokenSettings{
		Secret:   "unit-test-secret",
		Issuer:   "focusmate-app",
		Audience: "focusmate-users",
	}, security.WithTokenClock(clock.Now))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	guard := NewAccountGuard(users, cfg.Lockout.Threshold, cfg.Lockout.Duration)
	guard.WithClock(clock.Now)

	manager := NewSessionManager(sessions, events, nil, cfg.Sessions.Keep, logger)
	manager.WithClock(clock.Now)

	svc, err := NewAuthService(cfg, AuthDependencies{
		Users:    users,
		Sessions: manager,
		Guard:    guard,
		Hasher:   hasher,
		Tokens:   tokens,
		Limiter:  ratelimit.New(ratelimit.WithClock(clock.Now)),
		Events:   events,
		Audit:    audit,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	svc.WithClock(clock.Now)

	return &authHarness{
		svc:      svc,
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    audit,
		events:   events,
		clock:    clock,
		cfg:      cfg,
	}
}
