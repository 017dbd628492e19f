package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/services"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/auth"
)

// Session cookie names
const (
	AccessCookie  = "tp_access"
	RefreshCookie = "tp_refresh"
)

const teacherContextKey = "teacher"

// Authenticator resolves tokens into teachers
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.Teacher, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
}

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Secure bool
	Domain string
}

// AuthMiddleware gates routes on the caller's session and role
type AuthMiddleware struct {
	authenticator Authenticator
	cookies       CookieConfig
	logger        zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator, cookies CookieConfig, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		cookies:       cookies,
		logger:        logger,
	}
}

// Cookies returns the cookie attributes the middleware writes with
func (m *AuthMiddleware) Cookies() CookieConfig {
	return m.cookies
}

// Guard admits callers holding at least role. RoleTeacher admits admins too.
// Browsers are redirected; API clients get 401 or 403.
func (m *AuthMiddleware) Guard(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		teacher, err := m.Resolve(c)
		if err != nil {
			if !IsSessionError(err) {
				HandleAPIError(c, err)
				c.Abort()
				return
			}
			m.reject(c, http.StatusUnauthorized, services.LoginPath, err)
			return
		}

		if role == models.RoleAdmin && !teacher.IsAdmin() {
			m.logger.Warn().
				Str("teacherID", teacher.ID.String()).
				Str("path", c.Request.URL.Path).
				Msg("Non-admin tried to reach an admin route")
			m.reject(c, http.StatusForbidden, services.LandingFor(teacher.Role), apperrors.ErrPermissionDenied)
			return
		}

		c.Set(teacherContextKey, teacher)
		c.Next()
	}
}

// Resolve finds the teacher behind the request. An expired or missing access
// token falls back to the refresh cookie, which is rotated on success.
func (m *AuthMiddleware) Resolve(c *gin.Context) (*models.Teacher, error) {
	ctx := c.Request.Context()

	token := accessToken(c)
	if token != "" {
		teacher, err := m.authenticator.Authenticate(ctx, token)
		if err == nil {
			return teacher, nil
		}
		if !IsSessionError(err) {
			return nil, err
		}
	}

	refresh, _ := c.Cookie(RefreshCookie)
	if refresh == "" {
		return nil, apperrors.ErrTokenNotFound
	}

	session, err := m.authenticator.Refresh(ctx, refresh)
	if err != nil {
		if IsSessionError(err) {
			ClearSessionCookies(c, m.cookies)
		}
		return nil, err
	}
	SetSessionCookies(c, m.cookies, session.Tokens)
	return session.Teacher, nil
}

func (m *AuthMiddleware) reject(c *gin.Context, status int, location string, err error) {
	if WantsHTML(c) {
		c.Redirect(http.StatusFound, location)
		c.Abort()
		return
	}

	code, message := dto.ErrorCodeUnauthorized, "Authentication required"
	if status == http.StatusForbidden {
		code, message = dto.ErrorCodeForbidden, "Access denied"
	}
	detail := dto.NewErrorDetail(code, message)
	if errors.Is(err, apperrors.ErrTokenExpired) {
		detail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token has expired")
	}
	c.AbortWithStatusJSON(status, dto.NewFailureResponse(detail))
}

// IsSessionError reports errors that mean "no usable session" rather than a failure
func IsSessionError(err error) bool {
	return apperrors.Is(err, apperrors.ErrTokenNotFound,
		apperrors.ErrTokenInvalid,
		apperrors.ErrTokenExpired,
		apperrors.ErrTokenRevoked,
		apperrors.ErrAccountPending,
	)
}

func accessToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, err := auth.ExtractBearerToken(header); err == nil && token != "" {
			return token
		}
	}
	token, _ := c.Cookie(AccessCookie)
	return token
}

// WantsHTML reports whether the caller is a browser navigating pages
func WantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// CurrentTeacher returns the teacher stored by Guard
func CurrentTeacher(c *gin.Context) (*models.Teacher, bool) {
	value, exists := c.Get(teacherContextKey)
	if !exists {
		return nil, false
	}
	teacher, ok := value.(*models.Teacher)
	return teacher, ok && teacher != nil
}

// SetSessionCookies writes both session cookies as HttpOnly
func SetSessionCookies(c *gin.Context, cfg CookieConfig, tokens *auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, tokens.AccessToken, tokens.ExpiresIn, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(RefreshCookie, tokens.RefreshToken, tokens.RefreshExpiresIn, "/", cfg.Domain, cfg.Secure, true)
}

// ClearSessionCookies expires both session cookies
func ClearSessionCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
