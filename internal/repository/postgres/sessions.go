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

const sessionsTable = "auth.sessions"

var sessionColumns = []string{
	"id",
	"user_id",
	"refresh_token_hash",
	"ip_address",
	"user_agent",
	"created_at",
	"expires_at",
}

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance bound to the supplied transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	if tx == nil {
		return r
	}
	return &SessionRepository{exec: tx, builder: r.builder}
}

// Insert persists a new session row.
func (r *SessionRepository) Insert(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert(sessionsTable).
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.RefreshTokenHash,
			session.IP,
			session.UserAgent,
			session.CreatedAt,
			session.ExpiresAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListByUser returns all sessions for the user ordered by creation time, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From(sessionsTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sessions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// DeleteByIDs removes the given sessions and reports how many rows were deleted.
func (r *SessionRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	stmt, args, err := r.builder.
		Delete(sessionsTable).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// FindByTokenHash resolves a session from the hash of its refresh token.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From(sessionsTable).
		Where(squirrel.Eq{"refresh_token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	session, err := scanSession(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var session domain.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.IP,
		&session.UserAgent,
		&session.CreatedAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
