package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/dberrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// ISessionRepository stores refresh sessions keyed by the hash of the refresh token
type ISessionRepository interface {
	Create(ctx context.Context, tokenHash string, teacherID uuid.UUID, expiresAt time.Time) error
	Get(ctx context.Context, tokenHash string) (uuid.UUID, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForTeacher(ctx context.Context, teacherID uuid.UUID) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// SessionRepository handles session database operations
type SessionRepository struct {
	db  *pgxpool.Pool
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now: time.Now,
	}
}

// Create stores a new refresh session
func (r *SessionRepository) Create(ctx context.Context, tokenHash string, teacherID uuid.UUID, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert("sessions").
		Columns("token_hash", "teacher_id", "expires_at").
		Values(tokenHash, teacherID, expiresAt).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create session SQL")
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "sessions_pkey") {
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Str("teacherID", teacherID.String()).Msg("Error executing create session query")
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// Get returns the teacher owning a live session
func (r *SessionRepository) Get(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	sql, args, err := r.sb.Select("teacher_id", "expires_at", "revoked").
		From("sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	var (
		teacherID uuid.UUID
		expiresAt time.Time
		revoked   bool
	)
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&teacherID, &expiresAt, &revoked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error scanning session row")
		return uuid.Nil, fmt.Errorf("error retrieving session: %w", err)
	}

	if revoked {
		return uuid.Nil, apperrors.ErrTokenRevoked
	}
	if expiresAt.Before(r.now()) {
		return uuid.Nil, apperrors.ErrTokenExpired
	}
	return teacherID, nil
}

// Revoke marks a live session revoked. Only one caller can revoke a given
// session; the others get ErrTokenRevoked.
func (r *SessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	sql, args, err := r.sb.Update("sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"token_hash": tokenHash, "revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke session query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing revoke session query")
		return fmt.Errorf("error revoking session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

// RevokeAllForTeacher revokes every live session of a teacher
func (r *SessionRepository) RevokeAllForTeacher(ctx context.Context, teacherID uuid.UUID) error {
	sql, args, err := r.sb.Update("sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"teacher_id": teacherID, "revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke all sessions query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("teacherID", teacherID.String()).Msg("Error executing revoke all sessions query")
		return fmt.Errorf("error revoking sessions: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions and revoked ones older than thirty days
func (r *SessionRepository) CleanupExpired(ctx context.Context) (int64, error) {
	now := r.now()
	sql, args, err := r.sb.Delete("sessions").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.And{
				squirrel.Eq{"revoked": true},
				squirrel.Lt{"created_at": now.Add(-30 * 24 * time.Hour)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup sessions query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing cleanup sessions query")
		return 0, fmt.Errorf("error cleaning up sessions: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
