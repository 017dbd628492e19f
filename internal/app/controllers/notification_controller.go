package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
)

// Welcome function messages
const (
	MsgWelcomeMissingFields = "Missing required fields"
	MsgWelcomeQueued        = "Email queued for sending"
)

// Mailer hands a composed message to the mail transport
type Mailer interface {
	Deliver(ctx context.Context, msg *notify.Message) error
}

// NotificationController hosts the welcome-email function the dispatcher posts to.
// It composes the message and hands it to the mailer.
type NotificationController struct {
	composer   *notify.Composer
	mailer     Mailer
	serviceKey string
	logger     zerolog.Logger
}

// NewNotificationController creates a new NotificationController. A non-empty
// serviceKey must be presented as a bearer token.
func NewNotificationController(composer *notify.Composer, mailer Mailer, serviceKey string, logger zerolog.Logger) *NotificationController {
	return &NotificationController{
		composer:   composer,
		mailer:     mailer,
		serviceKey: serviceKey,
		logger:     logger,
	}
}

// SendWelcomeEmail composes a welcome e-mail
// @Summary Send welcome e-mail
// @Description Builds the welcome e-mail for a newly registered teacher and queues it.
// @Tags functions
// @Accept json
// @Produce json
// @Param request body dto.WelcomeEmailRequest true "Recipient and credentials"
// @Success 200 {object} dto.WelcomeEmailResponse "Queued"
// @Failure 400 {object} dto.WebhookError "Missing required fields"
// @Failure 401 {object} dto.WebhookError "Service key mismatch"
// @Failure 500 {object} dto.WebhookError "Message could not be composed or handed over"
// @Router /functions/v1/send-welcome-email [post]
func (c *NotificationController) SendWelcomeEmail(ctx *gin.Context) {
	if c.serviceKey != "" {
		given := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(given), []byte(c.serviceKey)) != 1 {
			ctx.JSON(http.StatusUnauthorized, dto.WebhookError{Error: "Unauthorized"})
			return
		}
	}

	var req dto.WelcomeEmailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.WebhookError{Error: MsgWelcomeMissingFields, Details: err.Error()})
		return
	}

	msg, err := c.composer.Compose(notify.Welcome{
		Email:             strings.TrimSpace(req.Email),
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		IIN:               strings.TrimSpace(req.IIN),
		TemporaryPassword: req.TemporaryPassword,
		ClaimURL:          req.ClaimURL,
	})
	if err != nil {
		if errors.Is(err, notify.ErrMissingFields) {
			ctx.JSON(http.StatusBadRequest, dto.WebhookError{Error: MsgWelcomeMissingFields})
			return
		}
		c.logger.Error().Err(err).Msg("Failed to compose welcome e-mail")
		ctx.JSON(http.StatusInternalServerError, dto.WebhookError{Error: "Failed to compose e-mail", Details: err.Error()})
		return
	}

	if err := c.mailer.Deliver(ctx.Request.Context(), msg); err != nil {
		c.logger.Error().Err(err).Str("to", msg.To).Msg("Failed to hand over welcome e-mail")
		ctx.JSON(http.StatusInternalServerError, dto.WebhookError{Error: "Failed to send e-mail", Details: err.Error()})
		return
	}

	c.logger.Info().
		Str("to", msg.To).
		Str("from", msg.From).
		Str("subject", msg.Subject).
		Int("bytes", len(msg.Raw)).
		Msg("Welcome e-mail queued")

	ctx.JSON(http.StatusOK, dto.WelcomeEmailResponse{
		Success:   true,
		Message:   MsgWelcomeQueued,
		Recipient: msg.To,
	})
}
