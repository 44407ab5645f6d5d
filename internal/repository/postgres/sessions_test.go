package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

var sessionRowColumns = []string{"id", "user_id", "refresh_token_hash", "ip_address", "user_agent", "created_at", "expires_at"}

func TestSessionRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	createdAt := time.Now().UTC()
	ip := "198.51.100.10"
	session := domain.Session{
		ID:               "session-1",
		UserID:           "user-1",
		RefreshTokenHash: "abc123",
		IP:               &ip,
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.Add(7 * 24 * time.Hour),
	}

	mock.ExpectExec(`INSERT INTO auth\.sessions`).
		WithArgs("session-1", "user-1", "abc123", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), session); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_ListByUserNewestFirst(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(sessionRowColumns).
		AddRow("s-2", "user-1", "h2", (*string)(nil), (*string)(nil), base.Add(time.Minute), base.Add(time.Hour)).
		AddRow("s-1", "user-1", "h1", (*string)(nil), (*string)(nil), base, base.Add(time.Hour))

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions WHERE user_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	sessions, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "s-2" || sessions[1].ID != "s-1" {
		t.Fatalf("unexpected order: %s, %s", sessions[0].ID, sessions[1].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_DeleteByIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectExec(`DELETE FROM auth\.sessions WHERE id IN \(\$1,\$2\)`).
		WithArgs("s-1", "s-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	deleted, err := repo.DeleteByIDs(context.Background(), []string{"s-1", "s-2"})
	if err != nil {
		t.Fatalf("DeleteByIDs returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if deleted, err := repo.DeleteByIDs(context.Background(), nil); err != nil || deleted != 0 {
		t.Fatalf("expected no-op for empty ids, got %d, %v", deleted, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_FindByTokenHashMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM auth\.sessions WHERE refresh_token_hash = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByTokenHash(context.Background(), "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
