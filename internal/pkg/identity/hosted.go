package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"resty.dev/v3"
)

const hostedPageSize = 200

// HostedConfig points at a GoTrue-compatible auth server
type HostedConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// HostedProvider manages identities through the admin REST API of a hosted auth server
type HostedProvider struct {
	client *resty.Client
}

// NewHostedProvider creates a provider for the auth server at cfg.BaseURL
func NewHostedProvider(cfg HostedConfig) *HostedProvider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("apikey", cfg.ServiceKey).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.ServiceKey)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &HostedProvider{client: client}
}

// Close releases idle connections held by the HTTP client
func (p *HostedProvider) Close() error {
	return p.client.Close()
}

type hostedUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	UserMetadata     Metadata   `json:"user_metadata"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u hostedUser) toIdentity() *Identity {
	return &Identity{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Metadata:       u.UserMetadata,
		CreatedAt:      u.CreatedAt,
	}
}

type hostedError struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

// errorMessage extracts the most specific message of an error body
func errorMessage(res *resty.Response) (string, string) {
	var body hostedError
	if err := json.Unmarshal([]byte(res.String()), &body); err != nil {
		return "", strings.TrimSpace(res.String())
	}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if m != "" {
			return body.ErrorCode, m
		}
	}
	return body.ErrorCode, strings.TrimSpace(res.String())
}

func downstream(op string, res *resty.Response) error {
	_, msg := errorMessage(res)
	return fmt.Errorf("%s: auth server returned %d: %s: %w", op, res.StatusCode(), msg, apperrors.ErrDownstream)
}

// CreateIdentity creates a user through POST /auth/v1/admin/users
func (p *HostedProvider) CreateIdentity(ctx context.Context, params CreateParams) (*Identity, error) {
	body := map[string]interface{}{
		"email":         params.Email,
		"password":      params.Password,
		"email_confirm": params.EmailConfirmed,
		"user_metadata": params.Metadata,
	}

	var user hostedUser
	res, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&user).
		Post("/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	if res.IsError() {
		code, msg := errorMessage(res)
		if code == "email_exists" || (res.StatusCode() == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "already")) {
			return nil, apperrors.ErrIdentityExists
		}
		return nil, downstream("create identity", res)
	}
	return user.toIdentity(), nil
}

// DeleteIdentity deletes a user through DELETE /auth/v1/admin/users/{id}
func (p *HostedProvider) DeleteIdentity(ctx context.Context, id string) error {
	res, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/auth/v1/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return apperrors.ErrIdentityNotFound
	}
	if res.IsError() {
		return downstream("delete identity", res)
	}
	return nil
}

// FindByEmail pages through the admin user listing until the email is found
func (p *HostedProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	for page := 1; ; page++ {
		var listing struct {
			Users []hostedUser `json:"users"`
		}
		res, err := p.client.R().
			SetContext(ctx).
			SetQueryParam("page", fmt.Sprint(page)).
			SetQueryParam("per_page", fmt.Sprint(hostedPageSize)).
			SetResult(&listing).
			Get("/auth/v1/admin/users")
		if err != nil {
			return nil, fmt.Errorf("list identities: %w", err)
		}
		if res.IsError() {
			return nil, downstream("list identities", res)
		}

		for _, u := range listing.Users {
			if strings.EqualFold(u.Email, email) {
				return u.toIdentity(), nil
			}
		}
		if len(listing.Users) < hostedPageSize {
			return nil, apperrors.ErrIdentityNotFound
		}
	}
}

// SignIn verifies credentials through the password grant
func (p *HostedProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var grant struct {
		User hostedUser `json:"user"`
	}
	res, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&grant).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	switch {
	case res.StatusCode() == http.StatusBadRequest || res.StatusCode() == http.StatusUnauthorized:
		return nil, apperrors.ErrInvalidCredentials
	case res.IsError():
		return nil, downstream("sign in", res)
	}
	return grant.User.toIdentity(), nil
}

// UpdatePassword sets a new password through PUT /auth/v1/admin/users/{id}
func (p *HostedProvider) UpdatePassword(ctx context.Context, id, password string) error {
	res, err := p.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(map[string]string{"password": password}).
		Put("/auth/v1/admin/users/{id}")
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return apperrors.ErrIdentityNotFound
	}
	if res.IsError() {
		return downstream("update password", res)
	}
	return nil
}
