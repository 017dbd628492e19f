package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/dberrors"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// IdentityRepository stores local identities in auth_identities.
// It implements identity.Store.
type IdentityRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

var _ identity.Store = (*IdentityRepository)(nil)

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert stores a new identity
func (r *IdentityRepository) Insert(ctx context.Context, rec *identity.Record) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode identity metadata: %w", err)
	}

	sql, args, err := r.sb.Insert("auth_identities").
		Columns("id", "email", "password_hash", "email_confirmed", "metadata").
		Values(rec.ID, rec.Email, rec.PasswordHash, rec.EmailConfirmed, string(metadata)).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create identity query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&rec.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "auth_identities_email_key") {
			return apperrors.ErrIdentityExists
		}
		logger.Error().Err(err).Str("email", rec.Email).Msg("Error executing create identity query")
		return fmt.Errorf("error creating identity: %w", err)
	}
	return nil
}

// Delete removes an identity
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrIdentityNotFound
	}
	sql, args, err := r.sb.Delete("auth_identities").Where(squirrel.Eq{"id": parsed}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete identity query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("identityID", id).Msg("Error executing delete identity query")
		return fmt.Errorf("error deleting identity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}
	return nil
}

// GetByEmail retrieves an identity with its password hash
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*identity.Record, error) {
	sql, args, err := r.sb.Select("id", "email", "password_hash", "email_confirmed", "metadata", "created_at").
		From("auth_identities").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get identity query: %w", err)
	}

	var (
		rec      identity.Record
		id       uuid.UUID
		metadata []byte
	)
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id, &rec.Email, &rec.PasswordHash, &rec.EmailConfirmed, &metadata, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("error retrieving identity: %w", err)
	}
	rec.ID = id.String()
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode identity metadata: %w", err)
		}
	}
	return &rec, nil
}

// UpdatePasswordHash replaces the stored hash
func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return apperrors.ErrIdentityNotFound
	}
	sql, args, err := r.sb.Update("auth_identities").
		Set("password_hash", hash).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": parsed}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrIdentityNotFound
	}
	return nil
}
