package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/security"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

// DefaultSessionKeep is the number of sessions retained per user.
const DefaultSessionKeep = 5

// SessionManager owns refresh session records. Records are never edited after
// insert; rotation inserts a new row and deletes the old one.
type SessionManager struct {
	sessions port.SessionRepository
	events   port.EventPublisher
	metrics  port.AuthMetrics
	logger   *zap.Logger
	keep     int
	now      func() time.Time
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(sessions port.SessionRepository, events port.EventPublisher, metrics port.AuthMetrics, keep int, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = port.NopAuthMetrics{}
	}
	if keep <= 0 {
		keep = DefaultSessionKeep
	}
	return &SessionManager{
		sessions: sessions,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		keep:     keep,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (m *SessionManager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// CreateSession stores a session for refreshToken and prunes the user's oldest sessions.
func (m *SessionManager) CreateSession(ctx context.Context, userID, refreshToken string, ttl time.Duration, meta domain.SessionMetadata) (domain.Session, error) {
	now := m.now()
	session := domain.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		RefreshTokenHash: security.HashToken(refreshToken),
		IP:               optionalString(meta.IP),
		UserAgent:        optionalString(meta.UserAgent),
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}

	if err := m.sessions.Insert(ctx, session); err != nil {
		return domain.Session{}, storeError("insert session", err)
	}

	if _, err := m.PruneExcess(ctx, userID); err != nil {
		return domain.Session{}, err
	}

	return session, nil
}

// PruneExcess deletes all but the newest keep sessions of the user and returns how many were removed.
func (m *SessionManager) PruneExcess(ctx context.Context, userID string) (int, error) {
	sessions, err := m.sessions.ListByUser(ctx, userID)
	if err != nil {
		return 0, storeError("list sessions", err)
	}
	if len(sessions) <= m.keep {
		return 0, nil
	}

	stale := sessions[m.keep:]
	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		ids = append(ids, s.ID)
	}

	deleted, err := m.sessions.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, storeError("prune sessions", err)
	}

	m.metrics.SessionsPruned(deleted)
	for _, s := range stale {
		m.publishRevoked(ctx, s, domain.RevokeReasonPruned)
	}
	return deleted, nil
}

// Revoke deletes a session. Unknown ids are not an error.
func (m *SessionManager) Revoke(ctx context.Context, session domain.Session, reason string) error {
	deleted, err := m.sessions.DeleteByIDs(ctx, []string{session.ID})
	if err != nil {
		return storeError("revoke session", err)
	}
	if deleted > 0 {
		m.publishRevoked(ctx, session, reason)
	}
	return nil
}

// Rotate deletes old and then stores a replacement session for newRefreshToken.
// The old row is removed before the insert so it never counts against keep.
// When old is already gone, another rotation consumed it first and
// ErrInvalidRefreshToken is returned without issuing anything.
func (m *SessionManager) Rotate(ctx context.Context, old domain.Session, newRefreshToken string, ttl time.Duration, meta domain.SessionMetadata) (domain.Session, error) {
	deleted, err := m.sessions.DeleteByIDs(ctx, []string{old.ID})
	if err != nil {
		return domain.Session{}, storeError("revoke session", err)
	}
	if deleted == 0 {
		return domain.Session{}, ErrInvalidRefreshToken
	}
	m.publishRevoked(ctx, old, domain.RevokeReasonRotation)

	return m.CreateSession(ctx, old.UserID, newRefreshToken, ttl, meta)
}

// Resolve finds the live session behind refreshToken.
func (m *SessionManager) Resolve(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidRefreshToken
	}

	session, err := m.sessions.FindByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, storeError("find session", err)
	}
	if session.IsExpired(m.now()) {
		return nil, ErrInvalidRefreshToken
	}
	return session, nil
}

// ListActive returns the user's unexpired sessions, newest first.
func (m *SessionManager) ListActive(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := m.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("list sessions", err)
	}

	now := m.now()
	active := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.IsExpired(now) {
			continue
		}
		active = append(active, s)
	}
	return active, nil
}

func (m *SessionManager) publishRevoked(ctx context.Context, session domain.Session, reason string) {
	if m.events == nil {
		return
	}
	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: session.ID,
		UserID:    session.UserID,
		Reason:    reason,
		RevokedAt: m.now(),
	}
	if err := m.events.PublishSessionRevoked(ctx, event); err != nil {
		m.logger.Warn("publish session revoked failed",
			zap.String("session_id", session.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
