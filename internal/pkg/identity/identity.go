// Package identity talks to the authentication identity store that sits next to the
// teacher table. The two never share a transaction.
package identity

import (
	"context"
	"time"
)

// Metadata is stored with every identity
type Metadata struct {
	IIN       string `json:"iin"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Identity is an account known to the identity provider
type Identity struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Metadata       Metadata
	CreatedAt      time.Time
}

// CreateParams describe a new identity
type CreateParams struct {
	Email          string
	Password       string
	EmailConfirmed bool
	Metadata       Metadata
}

// Provider creates, verifies and removes identities.
//
// Errors: apperrors.ErrIdentityExists on a duplicate email, apperrors.ErrIdentityNotFound
// for unknown ids or emails, apperrors.ErrInvalidCredentials when SignIn fails.
type Provider interface {
	CreateIdentity(ctx context.Context, params CreateParams) (*Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	UpdatePassword(ctx context.Context, id, password string) error
}
