package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/claims"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
)

// Landing paths
const (
	LoginPath      = "/login"
	AdminLanding   = "/admin/dashboard"
	TeacherLanding = "/teacher/dashboard"
)

// MsgInvalidLogin is shared by every failed sign-in so unknown IINs and wrong
// passwords look the same to the caller.
const MsgInvalidLogin = "Invalid IIN or password"

const maxPasswordLength = 72

// LandingFor returns the dashboard a role lands on after sign-in
func LandingFor(role models.Role) string {
	if role == models.RoleAdmin {
		return AdminLanding
	}
	return TeacherLanding
}

// Session is a signed-in teacher with freshly issued tokens
type Session struct {
	Teacher *models.Teacher
	Tokens  *auth.TokenPair
}

// AuthService handles authentication operations
type AuthService struct {
	teachers   repositories.ITeacherRepository
	sessions   repositories.ISessionRepository
	identities identity.Provider
	claims     claims.Store
	jwtService *auth.JWTService
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService. claimStore may be nil when claim
// links are disabled.
func NewAuthService(
	teachers repositories.ITeacherRepository,
	sessions repositories.ISessionRepository,
	identities identity.Provider,
	claimStore claims.Store,
	jwtService *auth.JWTService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		teachers:   teachers,
		sessions:   sessions,
		identities: identities,
		claims:     claimStore,
		jwtService: jwtService,
		metrics:    m,
		logger:     logger,
	}
}

func invalidLogin() error {
	return apperrors.NewCustomError(apperrors.ErrInvalidCredentials, MsgInvalidLogin)
}

// validatePassword checks a new password against the length policy
func (s *AuthService) validatePassword(password string) error {
	length := len(password)
	if length < validation.PasswordMinLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password must be at least %d characters long", validation.PasswordMinLength))
	}
	if length > maxPasswordLength {
		return apperrors.NewValidationError(fmt.Sprintf("Password must be at most %d characters long", maxPasswordLength))
	}
	return nil
}

// Login resolves the IIN to a teacher, lets the identity provider verify the
// password and opens a session.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*Session, error) {
	iin := strings.TrimSpace(req.IIN)
	if !validation.ValidateIIN(iin) || req.Password == "" {
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, invalidLogin()
	}

	teacher, err := s.teachers.GetByIIN(ctx, iin)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			s.metrics.Logins.WithLabelValues("invalid").Inc()
			return nil, invalidLogin()
		}
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error looking up teacher: %w", err)
	}
	if !teacher.IsActive() {
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, invalidLogin()
	}

	if _, err := s.identities.SignIn(ctx, teacher.Email, req.Password); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) || errors.Is(err, apperrors.ErrIdentityNotFound) {
			s.metrics.Logins.WithLabelValues("invalid").Inc()
			return nil, invalidLogin()
		}
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error verifying credentials: %w", err)
	}

	session, err := s.openSession(ctx, teacher)
	if err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	s.logger.Info().Str("teacherID", teacher.ID.String()).Str("role", string(teacher.Role)).Msg("Teacher signed in")
	return session, nil
}

func (s *AuthService) openSession(ctx context.Context, teacher *models.Teacher) (*Session, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		TeacherID: teacher.ID,
		Email:     teacher.Email,
		Role:      string(teacher.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.sessions.Create(ctx, auth.HashRefreshToken(pair.RefreshToken), teacher.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("error storing session: %w", err)
	}

	return &Session{Teacher: teacher, Tokens: pair}, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenNotFound
	}

	hash := auth.HashRefreshToken(refreshToken)
	teacherID, err := s.sessions.Get(ctx, hash)
	if err != nil {
		return nil, err
	}

	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error loading teacher: %w", err)
	}
	if !teacher.IsActive() {
		return nil, apperrors.ErrAccountPending
	}

	// a concurrent refresh with the same token loses here
	if err := s.sessions.Revoke(ctx, hash); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.openSession(ctx, teacher)
}

// Logout revokes the refresh token. Unknown and already revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	err := s.sessions.Revoke(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) && !errors.Is(err, apperrors.ErrTokenRevoked) {
		return fmt.Errorf("error revoking session: %w", err)
	}
	return nil
}

// Authenticate validates an access token and loads the active teacher it was
// issued for.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.Teacher, error) {
	tokenClaims, err := s.jwtService.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}

	teacher, err := s.teachers.GetByEmail(ctx, tokenClaims.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error loading teacher: %w", err)
	}
	if teacher.ID.String() != tokenClaims.TeacherID {
		return nil, apperrors.ErrTokenInvalid
	}
	if !teacher.IsActive() {
		return nil, apperrors.ErrAccountPending
	}
	return teacher, nil
}

// identityID returns the identity paired with teacher, asking the provider when
// the row does not record it.
func (s *AuthService) identityID(ctx context.Context, teacher *models.Teacher) (string, error) {
	if teacher.IdentityID != nil && *teacher.IdentityID != "" {
		return *teacher.IdentityID, nil
	}
	ident, err := s.identities.FindByEmail(ctx, teacher.Email)
	if err != nil {
		return "", err
	}
	return ident.ID, nil
}

// ChangePassword verifies the current password, sets the new one and signs out
// every other session of the teacher.
func (s *AuthService) ChangePassword(ctx context.Context, teacher *models.Teacher, req *dto.ChangePasswordRequest) error {
	if err := s.validatePassword(req.NewPassword); err != nil {
		return err
	}

	if _, err := s.identities.SignIn(ctx, teacher.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Current password is incorrect")
		}
		return fmt.Errorf("error verifying current password: %w", err)
	}

	id, err := s.identityID(ctx, teacher)
	if err != nil {
		return fmt.Errorf("error resolving identity: %w", err)
	}
	if err := s.identities.UpdatePassword(ctx, id, req.NewPassword); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}

	if err := s.sessions.RevokeAllForTeacher(ctx, teacher.ID); err != nil {
		s.logger.Warn().Err(err).Str("teacherID", teacher.ID.String()).Msg("Failed to revoke sessions after password change")
	}
	s.logger.Info().Str("teacherID", teacher.ID.String()).Msg("Password changed")
	return nil
}

// Claim redeems a single-use claim token, sets the chosen password and opens a
// session for the account. When the password cannot be set the token is put
// back so the same link can be used again.
func (s *AuthService) Claim(ctx context.Context, req *dto.ClaimAccountRequest) (*Session, error) {
	if s.claims == nil {
		return nil, apperrors.ErrClaimUnavailable
	}
	if err := s.validatePassword(req.NewPassword); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(req.Token)
	claim, err := s.claims.Redeem(ctx, token)
	if err != nil {
		return nil, err
	}
	restore := func() {
		if err := s.claims.Restore(context.WithoutCancel(ctx), token, *claim); err != nil {
			s.logger.Warn().Err(err).Str("teacherID", claim.TeacherID.String()).Msg("Failed to restore claim token")
		}
	}

	teacher, err := s.teachers.GetByID(ctx, claim.TeacherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeacherNotFound) {
			return nil, apperrors.ErrClaimNotFound
		}
		restore()
		return nil, fmt.Errorf("error loading teacher: %w", err)
	}
	if !teacher.IsActive() {
		restore()
		return nil, apperrors.ErrAccountPending
	}

	identityID := claim.IdentityID
	if identityID == "" {
		if identityID, err = s.identityID(ctx, teacher); err != nil {
			restore()
			return nil, fmt.Errorf("error resolving identity: %w", err)
		}
	}
	if err := s.identities.UpdatePassword(ctx, identityID, req.NewPassword); err != nil {
		restore()
		return nil, fmt.Errorf("error setting password: %w", err)
	}

	s.logger.Info().Str("teacherID", teacher.ID.String()).Msg("Account claimed")
	return s.openSession(ctx, teacher)
}
