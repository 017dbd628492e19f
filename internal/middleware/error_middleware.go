package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// errorRule maps a sentinel onto a status, code and fallback message
type errorRule struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
	// passthrough uses err.Error() as the message when no CustomError message is set
	passthrough bool
}

// Rules are checked in order; the first sentinel found in the chain wins.
var errorRules = []errorRule{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed", false},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeInvalidRequest, "Bad request", false},
	{apperrors.ErrInvalidStatusTransition, http.StatusBadRequest, dto.ErrorCodeInvalidStatus, "", true},
	{apperrors.ErrClaimNotFound, http.StatusBadRequest, dto.ErrorCodeInvalidToken, "Claim link is invalid or expired", false},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials", false},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired", false},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked", false},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token", false},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found", false},

	{apperrors.ErrAccountPending, http.StatusForbidden, dto.ErrorCodeAccountPending, "Account setup is not finished yet", false},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied", false},

	{apperrors.ErrTeacherNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Teacher not found", false},
	{apperrors.ErrSkillNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Skill not found", false},
	{apperrors.ErrGoalNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Goal not found", false},
	{apperrors.ErrStudentResultNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student result not found", false},
	{apperrors.ErrClaimUnavailable, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Claim links are not enabled", false},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found", false},

	{apperrors.ErrIINAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Teacher with this IIN already exists", false},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists", false},
	{apperrors.ErrRegistrationInProgress, http.StatusConflict, dto.ErrorCodeConflict, "Registration for this IIN is in progress", false},
	{apperrors.ErrIdentityExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Account already exists", false},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists", false},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict", false},

	{apperrors.ErrDownstream, http.StatusBadGateway, dto.ErrorCodeExternalServiceError, "Upstream service failed", false},
}

// HandleAPIError writes the envelope for err with the status of the first matching rule.
// Unknown errors become a 500 without leaking their text.
func HandleAPIError(c *gin.Context, err error) {
	for _, rule := range errorRules {
		if !errors.Is(err, rule.target) {
			continue
		}

		message := rule.message
		if custom, ok := apperrors.MessageOf(err); ok {
			message = custom
		} else if rule.passthrough {
			message = err.Error()
		}

		detail := dto.NewErrorDetail(rule.code, message)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		c.JSON(rule.status, dto.NewFailureResponse(detail))
		return
	}

	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	c.JSON(http.StatusInternalServerError, dto.NewFailureResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}

// HandleBindError answers a request whose body or query failed to bind
func HandleBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewFailureResponse(dto.HandleValidationError(err)))
}
