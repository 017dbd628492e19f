package controllers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/middleware"
)

// PhotoField is the multipart field carrying a profile photo
const PhotoField = "photo"

// ProfileService covers the portfolio operations of a signed-in teacher
type ProfileService interface {
	Dashboard(ctx context.Context, teacher *models.Teacher) (*dto.TeacherDashboardResponse, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher, req *dto.UpdateProfileRequest) (*dto.TeacherView, error)
	UpdateCertification(ctx context.Context, teacherID uuid.UUID, req *dto.UpdateCertificationRequest) (*models.Certification, error)
	AddStudentResult(ctx context.Context, teacherID uuid.UUID, req *dto.CreateStudentResultRequest) (*models.StudentResult, error)
	DeleteStudentResult(ctx context.Context, teacherID, resultID uuid.UUID) error
	StartSkill(ctx context.Context, teacherID, skillID uuid.UUID) (*dto.TeacherSkillView, error)
	UpdateSkillStatus(ctx context.Context, teacherID, id uuid.UUID, status string) (*dto.TeacherSkillView, error)
	AddGoal(ctx context.Context, teacherID uuid.UUID, req *dto.AddGoalRequest) (*dto.TeacherGoalView, error)
	UpdateGoal(ctx context.Context, teacherID, id uuid.UUID, req *dto.UpdateGoalRequest) (*dto.TeacherGoalView, error)
	UploadPhoto(ctx context.Context, teacher *models.Teacher, fileHeader *multipart.FileHeader) (*dto.PhotoUploadResponse, error)
	ReferenceData(ctx context.Context) (*dto.ReferenceDataResponse, error)
}

// TeacherController serves the teacher's own portfolio
type TeacherController struct {
	profiles ProfileService
	logger   zerolog.Logger
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(profiles ProfileService, logger zerolog.Logger) *TeacherController {
	return &TeacherController{
		profiles: profiles,
		logger:   logger,
	}
}

// Dashboard returns the portfolio of the signed-in teacher
// @Summary Teacher dashboard
// @Description Returns the teacher, certification, skills, goals and student results of the signed-in teacher.
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.TeacherDashboardResponse} "Dashboard"
// @Failure 401 {object} dto.APIResponse "Authentication required"
// @Router /teacher/dashboard [get]
func (c *TeacherController) Dashboard(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	resp, err := c.profiles.Dashboard(ctx.Request.Context(), teacher)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateProfile edits the personal fields
// @Summary Update profile
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherView} "Profile updated"
// @Failure 400 {object} dto.APIResponse "Invalid field value"
// @Router /teacher/profile [put]
func (c *TeacherController) UpdateProfile(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.profiles.UpdateProfile(ctx.Request.Context(), teacher, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Profile updated"))
}

// UpdateCertification replaces the certification record
// @Summary Update certifications
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateCertificationRequest true "Scores and certificates"
// @Success 200 {object} dto.APIResponse{data=models.Certification} "Certifications updated"
// @Failure 400 {object} dto.APIResponse "Score out of range"
// @Router /teacher/certifications [put]
func (c *TeacherController) UpdateCertification(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.UpdateCertificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	cert, err := c.profiles.UpdateCertification(ctx.Request.Context(), teacher.ID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(cert, "Certifications updated"))
}

// AddStudentResult records one student result
// @Summary Add student result
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentResultRequest true "Result"
// @Success 201 {object} dto.APIResponse{data=models.StudentResult} "Result added"
// @Failure 400 {object} dto.APIResponse "Invalid result"
// @Router /teacher/results [post]
func (c *TeacherController) AddStudentResult(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.CreateStudentResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	result, err := c.profiles.AddStudentResult(ctx.Request.Context(), teacher.ID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(result, "Result added"))
}

// DeleteStudentResult removes one of the teacher's results
// @Summary Delete student result
// @Tags teacher
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result ID" Format(uuid)
// @Success 200 {object} dto.APIResponse "Result deleted"
// @Failure 404 {object} dto.APIResponse "Result not found"
// @Router /teacher/results/{id} [delete]
func (c *TeacherController) DeleteStudentResult(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "Result")
	if !ok {
		return
	}

	if err := c.profiles.DeleteStudentResult(ctx.Request.Context(), teacher.ID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Result deleted"))
}

// StartSkill links a catalogue skill to the teacher
// @Summary Start skill
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartSkillRequest true "Catalogue skill"
// @Success 201 {object} dto.APIResponse{data=dto.TeacherSkillView} "Skill started"
// @Failure 409 {object} dto.APIResponse "Skill already added"
// @Router /teacher/skills [post]
func (c *TeacherController) StartSkill(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.StartSkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	skillID, err := uuid.Parse(req.SkillID)
	if err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.profiles.StartSkill(ctx.Request.Context(), teacher.ID, skillID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(view, "Skill started"))
}

// UpdateSkillStatus moves one of the teacher's skills
// @Summary Update skill status
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher skill ID" Format(uuid)
// @Param request body dto.UpdateSkillStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherSkillView} "Skill updated"
// @Failure 400 {object} dto.APIResponse "Transition not allowed"
// @Failure 403 {object} dto.APIResponse "Skill belongs to another teacher"
// @Router /teacher/skills/{id} [patch]
func (c *TeacherController) UpdateSkillStatus(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "Skill")
	if !ok {
		return
	}

	var req dto.UpdateSkillStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.profiles.UpdateSkillStatus(ctx.Request.Context(), teacher.ID, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Skill updated"))
}

// AddGoal links a yearly goal to the teacher
// @Summary Add goal
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddGoalRequest true "Yearly goal"
// @Success 201 {object} dto.APIResponse{data=dto.TeacherGoalView} "Goal added"
// @Failure 409 {object} dto.APIResponse "Goal already added"
// @Router /teacher/goals [post]
func (c *TeacherController) AddGoal(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	var req dto.AddGoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.profiles.AddGoal(ctx.Request.Context(), teacher.ID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(view, "Goal added"))
}

// UpdateGoal changes one of the teacher's goals
// @Summary Update goal
// @Tags teacher
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher goal ID" Format(uuid)
// @Param request body dto.UpdateGoalRequest true "Status and notes"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherGoalView} "Goal updated"
// @Failure 400 {object} dto.APIResponse "Transition not allowed"
// @Failure 403 {object} dto.APIResponse "Goal belongs to another teacher"
// @Router /teacher/goals/{id} [patch]
func (c *TeacherController) UpdateGoal(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "Goal")
	if !ok {
		return
	}

	var req dto.UpdateGoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.profiles.UpdateGoal(ctx.Request.Context(), teacher.ID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Goal updated"))
}

// UploadPhoto stores a new profile photo
// @Summary Upload profile photo
// @Tags teacher
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "JPEG, PNG, WebP or GIF image"
// @Success 200 {object} dto.APIResponse{data=dto.PhotoUploadResponse} "Photo uploaded"
// @Failure 400 {object} dto.APIResponse "Missing, oversized or unsupported file"
// @Router /teacher/photo [post]
func (c *TeacherController) UploadPhoto(ctx *gin.Context) {
	teacher, ok := currentTeacher(ctx)
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile(PhotoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Photo file is required").WithField(PhotoField)
			ctx.JSON(http.StatusBadRequest, dto.NewFailureResponse(detail))
			return
		}
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.profiles.UploadPhoto(ctx.Request.Context(), teacher, fileHeader)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Photo uploaded"))
}

// ReferenceData returns the lists used by the profile forms
// @Summary Reference data
// @Description Workplaces, subjects, categories, result types, active skills and active goals.
// @Tags reference
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ReferenceDataResponse} "Reference data"
// @Router /reference [get]
func (c *TeacherController) ReferenceData(ctx *gin.Context) {
	resp, err := c.profiles.ReferenceData(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
