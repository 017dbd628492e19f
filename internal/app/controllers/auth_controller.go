package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/services"
	"github.com/yigit/teacherportfolio/internal/middleware"
	"github.com/yigit/teacherportfolio/internal/pkg/format"
)

// SessionService covers the sign-in operations of the auth controller
type SessionService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, teacher *models.Teacher, req *dto.ChangePasswordRequest) error
	Claim(ctx context.Context, req *dto.ClaimAccountRequest) (*services.Session, error)
}

// AuthController handles authentication related operations
type AuthController struct {
	sessions SessionService
	guard    *middleware.AuthMiddleware
	logger   zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(sessions SessionService, guard *middleware.AuthMiddleware, logger zerolog.Logger) *AuthController {
	return &AuthController{
		sessions: sessions,
		guard:    guard,
		logger:   logger,
	}
}

func (c *AuthController) openSession(ctx *gin.Context, session *services.Session, message string) {
	middleware.SetSessionCookies(ctx, c.guard.Cookies(), session.Tokens)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.LoginResponse{
		Role:             string(session.Teacher.Role),
		Landing:          services.LandingFor(session.Teacher.Role),
		AccessToken:      session.Tokens.AccessToken,
		TokenType:        "Bearer",
		ExpiresIn:        session.Tokens.ExpiresIn,
		RefreshExpiresIn: session.Tokens.RefreshExpiresIn,
	}, message))
}

// refreshToken prefers the cookie and falls back to the JSON body
func refreshToken(ctx *gin.Context) string {
	if token, err := ctx.Cookie(middleware.RefreshCookie); err == nil && token != "" {
		return token
	}
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// Login handles sign-in by IIN
// @Summary Sign in
// @Description Signs a teacher or admin in with their 12-digit IIN and password. Session cookies are set and the access token is returned.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "IIN and password"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Signed in"
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Invalid IIN or password"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	session, err := c.sessions.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.openSession(ctx, session, "Signed in")
}

// RefreshToken rotates the refresh token
// @Summary Refresh session
// @Description Revokes the presented refresh token (cookie or body) and issues a new token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token when the cookie is not sent"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Session refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	session, err := c.sessions.Refresh(ctx.Request.Context(), refreshToken(ctx))
	if err != nil {
		middleware.ClearSessionCookies(ctx, c.guard.Cookies())
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.openSession(ctx, session, "Session refreshed")
}

// Logout ends the session
// @Summary Sign out
// @Description Revokes the refresh token and clears the session cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse "Signed out"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.sessions.Logout(ctx.Request.Context(), refreshToken(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	middleware.ClearSessionCookies(ctx, c.guard.Cookies())
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Signed out"))
}

// ChangePassword replaces the password of the signed-in teacher
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.APIResponse "Password changed"
// @Failure 400 {object} dto.APIResponse "Invalid request format"
// @Failure 401 {object} dto.APIResponse "Current password is wrong"
// @Router /auth/change-password [post]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	if err := c.sessions.ChangePassword(ctx.Request.Context(), teacher, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Password changed"))
}

// Claim redeems a claim link
// @Summary Claim account
// @Description Sets the first password through a single-use claim link and signs the teacher in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ClaimAccountRequest true "Claim token and new password"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Account claimed"
// @Failure 400 {object} dto.APIResponse "Claim link is invalid or expired"
// @Failure 404 {object} dto.APIResponse "Claim links are not enabled"
// @Router /auth/claim [post]
func (c *AuthController) Claim(ctx *gin.Context) {
	var req dto.ClaimAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	session, err := c.sessions.Claim(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.openSession(ctx, session, "Account claimed")
}

// Session reports who is signed in
// @Summary Current session
// @Description Reports the signed-in teacher, if any, and where the caller should land.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session state"
// @Router /auth/session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	teacher, err := c.guard.Resolve(ctx)
	if err != nil && !middleware.IsSessionError(err) {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.SessionResponse{Landing: services.LoginPath}
	if teacher != nil {
		id := teacher.ID
		resp = dto.SessionResponse{
			Authenticated: true,
			TeacherID:     &id,
			Email:         teacher.Email,
			Role:          string(teacher.Role),
			FullName:      format.FullName(teacher.FirstName, teacher.LastName),
			Landing:       services.LandingFor(teacher.Role),
		}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
