// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/middleware"
)

// idParam parses a UUID path parameter, answering 400 when it is malformed
func idParam(ctx *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+label+" ID").
			WithField(name).
			WithDetails(label + " ID must be a valid UUID")
		ctx.JSON(http.StatusBadRequest, dto.NewFailureResponse(detail))
		return uuid.Nil, false
	}
	return id, true
}

// currentTeacher returns the teacher stored by the session guard
func currentTeacher(ctx *gin.Context) (*models.Teacher, bool) {
	teacher, ok := middleware.CurrentTeacher(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewFailureResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required"),
		))
		return nil, false
	}
	return teacher, true
}
