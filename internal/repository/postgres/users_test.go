package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

var userRowColumns = []string{
	"id", "email", "username", "full_name", "timezone", "password_hash", "is_active",
	"failed_attempts", "locked_until", "last_login", "created_at", "updated_at",
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	lockedUntil := createdAt.Add(30 * time.Minute)
	username := "alice"

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		"user-1", "alice@example.com", &username, "Alice", "Europe/Berlin", "$2a$12$hash", true,
		3, &lockedUntil, (*time.Time)(nil), createdAt, createdAt,
	)

	mock.ExpectQuery(`SELECT .*FROM auth\.users WHERE email = \$1 LIMIT 1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1, got %s", user.ID)
	}
	if user.Username == nil || *user.Username != "alice" {
		t.Fatalf("expected username alice, got %v", user.Username)
	}
	if user.FailedAttempts != 3 {
		t.Fatalf("expected 3 failed attempts, got %d", user.FailedAttempts)
	}
	if user.LockedUntil == nil || !user.LockedUntil.Equal(lockedUntil) {
		t.Fatalf("expected locked until %v, got %v", lockedUntil, user.LockedUntil)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByUsernameNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM auth\.users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.FindByUsername(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_InsertConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	now := time.Now().UTC()
	user := domain.User{
		ID:           "user-2",
		Email:        "bob@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO auth\.users`).
		WithArgs(
			user.ID, user.Email, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), user.PasswordHash, true,
			0, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	if err := repo.Insert(context.Background(), user); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE auth\.users SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), domain.User{ID: "missing", UpdatedAt: time.Now().UTC()})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
