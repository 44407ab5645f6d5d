package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/core/port"
	"github.com/Aro-geo/focusmate-app-sub002/internal/repository"
)

const usersTable = "auth.users"

var userColumns = []string{
	"id",
	"email",
	"username",
	"full_name",
	"timezone",
	"password_hash",
	"is_active",
	"failed_attempts",
	"locked_until",
	"last_login",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{exec: tx, builder: r.builder}
}

// FindByEmail looks up a user by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email}, "email")
}

// FindByUsername looks up a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"username": username}, "username")
}

// FindByID looks up a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id}, "id")
}

func (r *UserRepository) findOne(ctx context.Context, where squirrel.Sqlizer, by string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by %s sql: %w", by, err)
	}

	var user domain.User
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FullName,
		&user.Timezone,
		&user.PasswordHash,
		&user.IsActive,
		&user.FailedAttempts,
		&user.LockedUntil,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user by %s: %w", by, err)
	}

	return &user, nil
}

// Insert creates a new user row.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.Username,
			user.FullName,
			user.Timezone,
			user.PasswordHash,
			user.IsActive,
			user.FailedAttempts,
			user.LockedUntil,
			user.LastLogin,
			user.CreatedAt,
			user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Update writes the mutable fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("username", user.Username).
		Set("full_name", user.FullName).
		Set("timezone", user.Timezone).
		Set("password_hash", user.PasswordHash).
		Set("is_active", user.IsActive).
		Set("failed_attempts", user.FailedAttempts).
		Set("locked_until", user.LockedUntil).
		Set("last_login", user.LastLogin).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
