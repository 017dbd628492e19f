package controllers

import (
	"bytes"
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
	"github.com/yigit/teacherportfolio/internal/middleware"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func postJSON(t *testing.T, h gin.HandlerFunc, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/", h)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeWebhookError(t *testing.T, w *httptest.ResponseRecorder) dto.WebhookError {
	t.Helper()
	var body dto.WebhookError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type stubRegistrar struct {
	resp *dto.RegisterTeacherResponse
	err  error
	got  *dto.RegisterTeacherRequest
}

func (s *stubRegistrar) Register(_ context.Context, req *dto.RegisterTeacherRequest) (*dto.RegisterTeacherResponse, error) {
	s.got = req
	return s.resp, s.err
}

const registrationBody = `{"iin":"900101300123","email":"a@school.kz","firstName":"Aigerim","lastName":"Bekova"}`

func TestRegisterWebhookSecret(t *testing.T) {
	stub := &stubRegistrar{resp: &dto.RegisterTeacherResponse{Success: true}}
	c := NewRegistrationController(stub, "s3cret", testLogger())

	w := postJSON(t, c.Register, registrationBody, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeWebhookError(t, w).Error)
	assert.Nil(t, stub.got)

	w = postJSON(t, c.Register, registrationBody, map[string]string{WebhookSecretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.got)
	assert.Equal(t, "900101300123", stub.got.IIN)
}

func TestRegisterWebhookSuccess(t *testing.T) {
	id := uuid.New()
	stub := &stubRegistrar{resp: &dto.RegisterTeacherResponse{Success: true, TeacherID: id, Message: services.MsgRegistrationCompleted}}
	c := NewRegistrationController(stub, "", testLogger())

	w := postJSON(t, c.Register, registrationBody, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.RegisterTeacherResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, id, resp.TeacherID)
	assert.Equal(t, services.MsgRegistrationCompleted, resp.Message)
}

func TestRegisterWebhookInvalidBody(t *testing.T) {
	c := NewRegistrationController(&stubRegistrar{}, "", testLogger())

	for _, raw := range []string{`{"iin":`, `{"iin":"900101300123","ieltsScore":"NaN"}`, `{"totalExperience":"Inf"}`} {
		w := postJSON(t, c.Register, raw, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		body := decodeWebhookError(t, w)
		assert.Equal(t, services.MsgInvalidBody, body.Error, raw)
		assert.NotEmpty(t, body.Details, raw)
	}
}

func TestRegisterWebhookErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{
			"invalid",
			&services.RegistrationError{Kind: services.RegistrationInvalid, Message: services.MsgInvalidIIN},
			http.StatusBadRequest, services.MsgInvalidIIN,
		},
		{
			"conflict",
			&services.RegistrationError{Kind: services.RegistrationConflict, Message: services.MsgDuplicateIIN},
			http.StatusConflict, services.MsgDuplicateIIN,
		},
		{
			"downstream",
			&services.RegistrationError{Kind: services.RegistrationDownstream, Message: services.MsgIdentityFailed, Details: "identity api: 503"},
			http.StatusInternalServerError, services.MsgIdentityFailed,
		},
		{
			"wrapped",
			fmt.Errorf("register: %w", &services.RegistrationError{Kind: services.RegistrationConflict, Message: services.MsgRegistrationInProgress}),
			http.StatusConflict, services.MsgRegistrationInProgress,
		},
		{
			"unexpected",
			fmt.Errorf("panic in disguise"),
			http.StatusInternalServerError, services.MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRegistrationController(&stubRegistrar{err: tt.err}, "", testLogger())
			w := postJSON(t, c.Register, registrationBody, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeWebhookError(t, w).Error)
		})
	}
}

type recordingMailer struct {
	sent []*notify.Message
	err  error
}

func (m *recordingMailer) Deliver(_ context.Context, msg *notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newNotificationController(mailer Mailer) *NotificationController {
	return NewNotificationController(notify.NewComposer("https://portfolio.kz", "noreply@portfolio.kz"), mailer, "svc-key", testLogger())
}

const welcomeBody = `{"email":" a@school.kz ","firstName":"Aigerim","lastName":"Bekova","iin":"900101300123","temporaryPassword":"Xy7!pass"}`

func TestSendWelcomeEmail(t *testing.T) {
	mailer := &recordingMailer{}
	c := newNotificationController(mailer)
	key := map[string]string{"Authorization": "Bearer svc-key"}

	w := postJSON(t, c.SendWelcomeEmail, `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, c.SendWelcomeEmail, `{"email":"a@school.kz","firstName":"Aigerim"}`, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgWelcomeMissingFields, decodeWebhookError(t, w).Error)

	// neither a password nor a claim link
	w = postJSON(t, c.SendWelcomeEmail, `{"email":"a@school.kz","firstName":"Aigerim","lastName":"Bekova","iin":"900101300123"}`, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, mailer.sent)

	w = postJSON(t, c.SendWelcomeEmail, welcomeBody, key)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "noreply@portfolio.kz", mailer.sent[0].From)
	assert.NotEmpty(t, mailer.sent[0].Raw)

	var resp dto.WelcomeEmailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, MsgWelcomeQueued, resp.Message)
	assert.Equal(t, "a@school.kz", resp.Recipient)
}

func TestSendWelcomeEmailRelayFailure(t *testing.T) {
	c := newNotificationController(&recordingMailer{err: fmt.Errorf("connection refused")})

	w := postJSON(t, c.SendWelcomeEmail, welcomeBody, map[string]string{"Authorization": "Bearer svc-key"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to send e-mail", decodeWebhookError(t, w).Error)
}

type stubSessions struct {
	session   *services.Session
	err       error
	loggedOut []string
}

func (s *stubSessions) Login(context.Context, *dto.LoginRequest) (*services.Session, error) {
	return s.session, s.err
}

func (s *stubSessions) Refresh(context.Context, string) (*services.Session, error) {
	return s.session, s.err
}

func (s *stubSessions) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubSessions) ChangePassword(context.Context, *models.Teacher, *dto.ChangePasswordRequest) error {
	return s.err
}

func (s *stubSessions) Claim(context.Context, *dto.ClaimAccountRequest) (*services.Session, error) {
	return s.session, s.err
}

type noAuthenticator struct{}

func (noAuthenticator) Authenticate(context.Context, string) (*models.Teacher, error) {
	return nil, apperrors.ErrTokenInvalid
}

func (noAuthenticator) Refresh(context.Context, string) (*services.Session, error) {
	return nil, apperrors.ErrTokenRevoked
}

func newAuthController(sessions SessionService) *AuthController {
	guard := middleware.NewAuthMiddleware(noAuthenticator{}, middleware.CookieConfig{}, testLogger())
	return NewAuthController(sessions, guard, testLogger())
}

func TestLoginSetsSessionCookies(t *testing.T) {
	stub := &stubSessions{session: &services.Session{
		Teacher: &models.Teacher{ID: uuid.New(), Role: models.RoleAdmin},
		Tokens:  &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900, RefreshExpiresIn: 3600},
	}}
	c := newAuthController(stub)

	w := postJSON(t, c.Login, `{"iin":"900101300123","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := map[string]string{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck.Value
	}
	assert.Equal(t, "access", cookies[middleware.AccessCookie])
	assert.Equal(t, "refresh", cookies[middleware.RefreshCookie])

	var resp struct {
		Success bool              `json:"success"`
		Data    dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, string(models.RoleAdmin), resp.Data.Role)
	assert.Equal(t, services.LandingFor(models.RoleAdmin), resp.Data.Landing)
	assert.Equal(t, "Bearer", resp.Data.TokenType)
}

func TestLoginFailures(t *testing.T) {
	c := newAuthController(&stubSessions{err: apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid IIN or password")})

	w := postJSON(t, c.Login, `{"iin":"900101300123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, c.Login, `{"iin":"900101300123","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	var resp dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, resp.Error.Code)
	assert.Equal(t, "Invalid IIN or password", resp.Error.Message)
}

func TestLogoutClearsCookies(t *testing.T) {
	stub := &stubSessions{}
	c := newAuthController(stub)

	r := gin.New()
	r.POST("/logout", c.Logout)
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"refresh"}, stub.loggedOut)
	for _, ck := range w.Result().Cookies() {
		assert.Empty(t, ck.Value)
	}
}
