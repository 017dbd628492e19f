package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/services"
)

// WebhookSecretHeader carries the shared secret of the registration form
const WebhookSecretHeader = "X-Webhook-Secret"

// Registrar runs the registration workflow
type Registrar interface {
	Register(ctx context.Context, req *dto.RegisterTeacherRequest) (*dto.RegisterTeacherResponse, error)
}

// RegistrationController receives the registration form webhook.
// It answers with the flat {error, details} body the form understands.
type RegistrationController struct {
	registrar Registrar
	secret    string
	logger    zerolog.Logger
}

// NewRegistrationController creates a new RegistrationController. An empty secret
// disables the webhook secret check.
func NewRegistrationController(registrar Registrar, secret string, logger zerolog.Logger) *RegistrationController {
	return &RegistrationController{
		registrar: registrar,
		secret:    secret,
		logger:    logger,
	}
}

// Register handles the registration webhook
// @Summary Register a teacher
// @Description Creates the teacher record, the sign-in account and the optional certification and student result rows, then sends the welcome notification.
// @Tags registration
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string false "Shared webhook secret, required when configured"
// @Param request body dto.RegisterTeacherRequest true "Registration form payload"
// @Success 200 {object} dto.RegisterTeacherResponse "Teacher registered"
// @Failure 400 {object} dto.WebhookError "Missing or invalid fields"
// @Failure 401 {object} dto.WebhookError "Webhook secret mismatch"
// @Failure 409 {object} dto.WebhookError "Teacher with this IIN already exists"
// @Failure 500 {object} dto.WebhookError "A downstream write failed"
// @Router /register [post]
func (c *RegistrationController) Register(ctx *gin.Context) {
	if c.secret != "" {
		given := ctx.GetHeader(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(c.secret)) != 1 {
			c.logger.Warn().Str("clientIP", ctx.ClientIP()).Msg("Registration webhook secret mismatch")
			ctx.JSON(http.StatusUnauthorized, dto.WebhookError{Error: "Unauthorized"})
			return
		}
	}

	var req dto.RegisterTeacherRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration payload")
		ctx.JSON(http.StatusBadRequest, dto.WebhookError{Error: services.MsgInvalidBody, Details: err.Error()})
		return
	}

	resp, err := c.registrar.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *RegistrationController) fail(ctx *gin.Context, err error) {
	var regErr *services.RegistrationError
	if !errors.As(err, &regErr) {
		c.logger.Error().Err(err).Msg("Unexpected registration failure")
		ctx.JSON(http.StatusInternalServerError, dto.WebhookError{Error: services.MsgInternal})
		return
	}

	status := http.StatusInternalServerError
	switch regErr.Kind {
	case services.RegistrationInvalid:
		status = http.StatusBadRequest
	case services.RegistrationConflict:
		status = http.StatusConflict
	}
	ctx.JSON(status, dto.WebhookError{Error: regErr.Message, Details: regErr.Details})
}
