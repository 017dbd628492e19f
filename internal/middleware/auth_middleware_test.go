package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/services"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// stubAuthenticator maps access and refresh tokens onto outcomes
type stubAuthenticator struct {
	access    map[string]*models.Teacher
	accessErr map[string]error
	refresh   map[string]*services.Session
	refreshed []string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Teacher, error) {
	if err, ok := s.accessErr[token]; ok {
		return nil, err
	}
	if t, ok := s.access[token]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

func (s *stubAuthenticator) Refresh(_ context.Context, token string) (*services.Session, error) {
	s.refreshed = append(s.refreshed, token)
	if session, ok := s.refresh[token]; ok {
		return session, nil
	}
	return nil, apperrors.ErrTokenRevoked
}

var (
	teacherAccount = &models.Teacher{ID: uuid.New(), Role: models.RoleTeacher, ProvisioningStatus: models.ProvisioningActive}
	adminAccount   = &models.Teacher{ID: uuid.New(), Role: models.RoleAdmin, ProvisioningStatus: models.ProvisioningActive}
)

func newGuardedRouter(authenticator Authenticator, role models.Role) *gin.Engine {
	m := NewAuthMiddleware(authenticator, CookieConfig{}, testLogger())
	r := gin.New()
	r.GET("/guarded", m.Guard(role), func(c *gin.Context) {
		teacher, ok := CurrentTeacher(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, teacher.ID.String())
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGuardAdmitsBearerToken(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{access: map[string]*models.Teacher{"good": teacherAccount}}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, teacherAccount.ID.String(), w.Body.String())
}

func TestGuardAdmitsAccessCookie(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{access: map[string]*models.Teacher{"good": adminAccount}}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "good"})
	w := serve(r, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardWithoutSession(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{}, models.RoleTeacher)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrorCodeUnauthorized, resp.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w = serve(r, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, services.LoginPath, w.Header().Get("Location"))
}

func TestGuardExpiredTokenCode(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{accessErr: map[string]error{"old": apperrors.ErrTokenExpired}}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer old")
	w := serve(r, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// no refresh cookie, so the failure reported is the missing token
	assert.Equal(t, dto.ErrorCodeUnauthorized, decodeEnvelope(t, w).Error.Code)
}

func TestGuardFallsBackToRefreshCookie(t *testing.T) {
	stub := &stubAuthenticator{
		accessErr: map[string]error{"old": apperrors.ErrTokenExpired},
		refresh: map[string]*services.Session{
			"refresh-1": {
				Teacher: teacherAccount,
				Tokens:  &auth.TokenPair{AccessToken: "new-access", RefreshToken: "refresh-2", ExpiresIn: 900, RefreshExpiresIn: 3600},
			},
		},
	}
	r := newGuardedRouter(stub, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "old"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "refresh-1"})
	w := serve(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"refresh-1"}, stub.refreshed)

	cookies := map[string]*http.Cookie{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, AccessCookie)
	require.Contains(t, cookies, RefreshCookie)
	assert.Equal(t, "new-access", cookies[AccessCookie].Value)
	assert.Equal(t, "refresh-2", cookies[RefreshCookie].Value)
	assert.True(t, cookies[RefreshCookie].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[RefreshCookie].SameSite)
}

func TestGuardRevokedRefreshClearsCookies(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "stolen"})
	w := serve(r, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestGuardAdminRoute(t *testing.T) {
	stub := &stubAuthenticator{access: map[string]*models.Teacher{"teacher": teacherAccount, "admin": adminAccount}}
	r := newGuardedRouter(stub, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer teacher")
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, decodeEnvelope(t, w).Error.Code)

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer teacher")
	req.Header.Set("Accept", "text/html")
	w = serve(r, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, services.TeacherLanding, w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardInfrastructureFailureIs500(t *testing.T) {
	r := newGuardedRouter(&stubAuthenticator{accessErr: map[string]error{"t": fmt.Errorf("db down")}}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := serve(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrorCodeInternalServer, decodeEnvelope(t, w).Error.Code)
}
