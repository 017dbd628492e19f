package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
)

// Record is an identity together with its password hash
type Record struct {
	Identity
	PasswordHash string
}

// Store persists local identities
type Store interface {
	Insert(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	GetByEmail(ctx context.Context, email string) (*Record, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// LocalProvider keeps identities in the service's own database with bcrypt hashes
type LocalProvider struct {
	store Store
}

// NewLocalProvider creates a provider backed by store
func NewLocalProvider(store Store) *LocalProvider {
	return &LocalProvider{store: store}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentity hashes the password and stores a new identity
func (p *LocalProvider) CreateIdentity(ctx context.Context, params CreateParams) (*Identity, error) {
	if params.Password == "" {
		return nil, apperrors.NewValidationError("password is required")
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &Record{
		Identity: Identity{
			ID:             uuid.NewString(),
			Email:          normalizeEmail(params.Email),
			EmailConfirmed: params.EmailConfirmed,
			Metadata:       params.Metadata,
		},
		PasswordHash: hash,
	}
	if err := p.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return &rec.Identity, nil
}

// DeleteIdentity removes an identity by id
func (p *LocalProvider) DeleteIdentity(ctx context.Context, id string) error {
	return p.store.Delete(ctx, id)
}

// FindByEmail looks an identity up by email
func (p *LocalProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	rec, err := p.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &rec.Identity, nil
}

// SignIn verifies a password. Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	rec, err := p.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrIdentityNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(rec.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &rec.Identity, nil
}

// UpdatePassword replaces the password of an identity
func (p *LocalProvider) UpdatePassword(ctx context.Context, id, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.store.UpdatePasswordHash(ctx, id, hash)
}
