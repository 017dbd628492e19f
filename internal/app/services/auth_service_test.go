package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/claims"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
)

type authHarness struct {
	teachers   *memTeachers
	sessions   *memSessions
	identities *memIdentities
	claims     *memClaims
	metrics    *metrics.Metrics
	service    *AuthService
}

func newAuthHarness() *authHarness {
	h := &authHarness{
		teachers:   newMemTeachers(),
		sessions:   newMemSessions(),
		identities: newMemIdentities(),
		claims:     newMemClaims(),
		metrics:    testMetrics(),
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret-key-with-enough-length",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 7 * 24 * time.Hour,
		TokenIssuer:     "teacherportfolio-test",
	})
	h.service = NewAuthService(h.teachers, h.sessions, h.identities, h.claims, jwtService, h.metrics, testLogger())
	return h
}

// addTeacher stores an active teacher with a matching identity
func (h *authHarness) addTeacher(t *testing.T, iin, email, password string, role models.Role) *models.Teacher {
	t.Helper()
	ident, err := h.identities.CreateIdentity(context.Background(), identity.CreateParams{Email: email, Password: password})
	require.NoError(t, err)
	return h.teachers.put(&models.Teacher{
		IIN:                iin,
		Email:              email,
		FirstName:          "Aigerim",
		LastName:           "Bekova",
		Role:               role,
		ProvisioningStatus: models.ProvisioningActive,
		IdentityID:         &ident.ID,
		CreatedAt:          time.Now(),
	})
}

func TestLoginSuccess(t *testing.T) {
	h := newAuthHarness()
	teacher := h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)

	session, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: " 900101300123 ", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, session.Teacher.ID)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)
	assert.Equal(t, 1, h.sessions.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Logins.WithLabelValues("success")))

	authed, err := h.service.Authenticate(context.Background(), session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, authed.ID)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	h := newAuthHarness()
	h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	h.teachers.put(&models.Teacher{
		IIN:                "900101300124",
		Email:              "pending@school.kz",
		ProvisioningStatus: models.ProvisioningPending,
	})

	attempts := []dto.LoginRequest{
		{IIN: "900101300123", Password: "wrong-pass"},
		{IIN: "111111111111", Password: "secret-pass"},
		{IIN: "12345", Password: "secret-pass"},
		{IIN: "900101300123", Password: ""},
		{IIN: "900101300124", Password: "secret-pass"},
	}
	for _, req := range attempts {
		_, err := h.service.Login(context.Background(), &req)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.Equal(t, MsgInvalidLogin, err.Error())
	}
	assert.Zero(t, h.sessions.count())
	assert.Equal(t, float64(len(attempts)), testutil.ToFloat64(h.metrics.Logins.WithLabelValues("invalid")))
}

func TestRefreshRotatesToken(t *testing.T) {
	h := newAuthHarness()
	h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	first, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "secret-pass"})
	require.NoError(t, err)

	second, err := h.service.Refresh(context.Background(), first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)
	assert.Equal(t, 1, h.sessions.count())

	_, err = h.service.Refresh(context.Background(), first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = h.service.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
}

func TestConcurrentRefreshMintsOneSession(t *testing.T) {
	h := newAuthHarness()
	h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	first, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "secret-pass"})
	require.NoError(t, err)

	// a second request rotates the same token between our read and our revoke
	var (
		rival    *Session
		rivalErr error
	)
	h.sessions.afterGet = func(string) {
		h.sessions.afterGet = nil
		rival, rivalErr = h.service.Refresh(context.Background(), first.Tokens.RefreshToken)
	}

	_, err = h.service.Refresh(context.Background(), first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	require.NoError(t, rivalErr)
	require.NotNil(t, rival)
	assert.Equal(t, 1, h.sessions.count())
}

func TestLogoutIgnoresUnknownToken(t *testing.T) {
	h := newAuthHarness()
	h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	session, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "secret-pass"})
	require.NoError(t, err)

	require.NoError(t, h.service.Logout(context.Background(), session.Tokens.RefreshToken))
	assert.Zero(t, h.sessions.count())
	assert.NoError(t, h.service.Logout(context.Background(), session.Tokens.RefreshToken))
	assert.NoError(t, h.service.Logout(context.Background(), ""))
}

func TestAuthenticateRejectsPendingAndUnknown(t *testing.T) {
	h := newAuthHarness()
	teacher := h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	session, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "secret-pass"})
	require.NoError(t, err)

	row := h.teachers.get(teacher.ID)
	row.ProvisioningStatus = models.ProvisioningPending
	h.teachers.put(row)
	_, err = h.service.Authenticate(context.Background(), session.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountPending)

	require.NoError(t, h.teachers.Delete(context.Background(), teacher.ID))
	_, err = h.service.Authenticate(context.Background(), session.Tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = h.service.Authenticate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestChangePassword(t *testing.T) {
	h := newAuthHarness()
	teacher := h.addTeacher(t, "900101300123", "aigerim@school.kz", "secret-pass", models.RoleTeacher)
	_, err := h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "secret-pass"})
	require.NoError(t, err)

	err = h.service.ChangePassword(context.Background(), teacher, &dto.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "brand-new-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	err = h.service.ChangePassword(context.Background(), teacher, &dto.ChangePasswordRequest{CurrentPassword: "secret-pass", NewPassword: "short"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	require.NoError(t, h.service.ChangePassword(context.Background(), teacher, &dto.ChangePasswordRequest{CurrentPassword: "secret-pass", NewPassword: "brand-new-pass"}))
	assert.Zero(t, h.sessions.count())

	_, err = h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestClaimIsSingleUse(t *testing.T) {
	h := newAuthHarness()
	teacher := h.addTeacher(t, "900101300123", "aigerim@school.kz", "temporary-pass", models.RoleTeacher)
	token, err := h.claims.Issue(context.Background(), claims.Claim{TeacherID: teacher.ID, IdentityID: *teacher.IdentityID})
	require.NoError(t, err)

	_, err = h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: token, NewPassword: "short"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	session, err := h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: token, NewPassword: "chosen-password"})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, session.Teacher.ID)

	_, err = h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: token, NewPassword: "chosen-password"})
	assert.ErrorIs(t, err, apperrors.ErrClaimNotFound)

	_, err = h.service.Login(context.Background(), &dto.LoginRequest{IIN: "900101300123", Password: "chosen-password"})
	assert.NoError(t, err)
}

func TestClaimSurvivesIdentityFailure(t *testing.T) {
	h := newAuthHarness()
	teacher := h.addTeacher(t, "900101300123", "aigerim@school.kz", "temporary-pass", models.RoleTeacher)
	token, err := h.claims.Issue(context.Background(), claims.Claim{TeacherID: teacher.ID, IdentityID: *teacher.IdentityID})
	require.NoError(t, err)

	h.identities.updateErr = errBoom
	_, err = h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: token, NewPassword: "chosen-password"})
	assert.ErrorIs(t, err, errBoom)

	// the same link works once the identity provider is back
	h.identities.updateErr = nil
	session, err := h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: token, NewPassword: "chosen-password"})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, session.Teacher.ID)
}

func TestClaimUnavailableWithoutStore(t *testing.T) {
	h := newAuthHarness()
	h.service.claims = nil

	_, err := h.service.Claim(context.Background(), &dto.ClaimAccountRequest{Token: "x", NewPassword: "chosen-password"})
	assert.ErrorIs(t, err, apperrors.ErrClaimUnavailable)
}

func TestLandingFor(t *testing.T) {
	assert.Equal(t, AdminLanding, LandingFor(models.RoleAdmin))
	assert.Equal(t, TeacherLanding, LandingFor(models.RoleTeacher))
}
