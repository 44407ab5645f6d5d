package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
)

func newTestSessionManager(t *testing.T, keep int) (*SessionManager, *fakeSessionRepo, *testClock) {
	t.Helper()
	repo := newFakeSessionRepo()
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	mgr := NewSessionManager(repo, &recordingEvents{}, nil, keep, zaptest.NewLogger(t))
	mgr.WithClock(clock.Now)
	return mgr, repo, clock
}

func TestCreateSessionStoresTokenHash(t *testing.T) {
	mgr, repo, _ := newTestSessionManager(t, 5)

	session, err := mgr.CreateSession(context.Background(), "user-1", "raw-refresh-token", time.Hour, domain.SessionMetadata{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.RefreshTokenHash == "raw-refresh-token" || session.RefreshTokenHash == "" {
		t.Fatalf("expected hashed token, got %q", session.RefreshTokenHash)
	}
	if session.IP == nil || *session.IP != "10.0.0.1" || session.UserAgent != nil {
		t.Fatalf("unexpected metadata %+v", session)
	}
	if repo.count() != 1 {
		t.Fatalf("expected 1 stored session, got %d", repo.count())
	}
}

func TestPruneExcessKeepsNewest(t *testing.T) {
	mgr, repo, clock := newTestSessionManager(t, 2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		s, err := mgr.CreateSession(ctx, "user-1", "token-"+string(rune('a'+i)), time.Hour, domain.SessionMetadata{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, s.ID)
	}
	if _, err := mgr.CreateSession(ctx, "user-2", "other", time.Hour, domain.SessionMetadata{}); err != nil {
		t.Fatalf("create: %v", err)
	}

	left, _ := repo.ListByUser(ctx, "user-1")
	if len(left) != 2 || left[0].ID != ids[3] || left[1].ID != ids[2] {
		t.Fatalf("unexpected remaining sessions %+v", left)
	}

	deleted, err := mgr.PruneExcess(ctx, "user-1")
	if err != nil || deleted != 0 {
		t.Fatalf("expected no-op prune, got %d, %v", deleted, err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	mgr, _, _ := newTestSessionManager(t, 5)
	ctx := context.Background()

	s, err := mgr.CreateSession(ctx, "user-1", "token", time.Hour, domain.SessionMetadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := mgr.Revoke(ctx, s, domain.RevokeReasonLogout); err != nil {
			t.Fatalf("revoke %d: %v", i, err)
		}
	}
	if err := mgr.Revoke(ctx, domain.Session{ID: "missing"}, domain.RevokeReasonManual); err != nil {
		t.Fatalf("revoke missing: %v", err)
	}
}

func TestResolveRejectsExpired(t *testing.T) {
	mgr, _, clock := newTestSessionManager(t, 5)
	ctx := context.Background()

	if _, err := mgr.CreateSession(ctx, "user-1", "token", time.Hour, domain.SessionMetadata{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mgr.Resolve(ctx, "token"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	clock.Advance(time.Hour)
	if _, err := mgr.Resolve(ctx, "token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	active, err := mgr.ListActive(ctx, "user-1")
	if err != nil || len(active) != 0 {
		t.Fatalf("expected no active sessions, got %d, %v", len(active), err)
	}
}

func TestRotateRejectsAlreadyRotatedSession(t *testing.T) {
	mgr, repo, clock := newTestSessionManager(t, 5)
	ctx := context.Background()

	old, err := mgr.CreateSession(ctx, "user-1", "token-old", time.Hour, domain.SessionMetadata{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.Advance(time.Second)
	next, err := mgr.Rotate(ctx, old, "token-first", time.Hour, domain.SessionMetadata{})
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	if _, err := mgr.Rotate(ctx, old, "token-second", time.Hour, domain.SessionMetadata{}); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for a consumed session, got %v", err)
	}

	left, _ := repo.ListByUser(ctx, "user-1")
	if len(left) != 1 || left[0].ID != next.ID {
		t.Fatalf("expected only the first replacement to exist, got %+v", left)
	}
}

func TestRotateDoesNotCountOldSessionAgainstKeep(t *testing.T) {
	mgr, repo, clock := newTestSessionManager(t, 3)
	ctx := context.Background()

	var sessions []domain.Session
	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		s, err := mgr.CreateSession(ctx, "user-1", "token-"+string(rune('a'+i)), time.Hour, domain.SessionMetadata{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		sessions = append(sessions, s)
	}

	clock.Advance(time.Second)
	next, err := mgr.Rotate(ctx, sessions[2], "token-rotated", time.Hour, domain.SessionMetadata{})
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}

	left, _ := repo.ListByUser(ctx, "user-1")
	if len(left) != 3 {
		t.Fatalf("expected 3 sessions after rotation, got %d", len(left))
	}
	if left[0].ID != next.ID || left[1].ID != sessions[1].ID || left[2].ID != sessions[0].ID {
		t.Fatalf("unexpected sessions after rotation %+v", left)
	}
}
