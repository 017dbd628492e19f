package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/middleware"
)

// AdminService covers the admin dashboard, catalogue and approvals
type AdminService interface {
	Dashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
	ListTeachers(ctx context.Context, filter *dto.TeacherFilterRequest) (*dto.TeacherListResponse, error)
	TeacherProfile(ctx context.Context, id uuid.UUID) (*dto.TeacherDashboardResponse, error)
	ListSkills(ctx context.Context) ([]models.Skill, error)
	CreateSkill(ctx context.Context, req *dto.SkillRequest) (*models.Skill, error)
	UpdateSkill(ctx context.Context, id uuid.UUID, req *dto.SkillRequest) (*models.Skill, error)
	ListGoals(ctx context.Context) ([]models.YearlyGoal, error)
	CreateGoal(ctx context.Context, req *dto.GoalRequest) (*models.YearlyGoal, error)
	UpdateGoal(ctx context.Context, id uuid.UUID, req *dto.GoalRequest) (*models.YearlyGoal, error)
	Approvals(ctx context.Context) (*dto.ApprovalsResponse, error)
	DecideSkill(ctx context.Context, adminID, id uuid.UUID, decision string) (*dto.TeacherSkillView, error)
	DecideGoal(ctx context.Context, adminID, id uuid.UUID, decision string) (*dto.TeacherGoalView, error)
}

// AdminController handles the admin area
type AdminController struct {
	admin  AdminService
	logger zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(admin AdminService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		admin:  admin,
		logger: logger,
	}
}

// Dashboard returns the overview counters
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminDashboardResponse} "Counters"
// @Failure 403 {object} dto.APIResponse "Admin role required"
// @Router /admin/dashboard [get]
func (c *AdminController) Dashboard(ctx *gin.Context) {
	resp, err := c.admin.Dashboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ListTeachers returns one page of teachers
// @Summary List teachers
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name, IIN or email fragment"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.TeacherListResponse} "Teachers"
// @Router /admin/teachers [get]
func (c *AdminController) ListTeachers(ctx *gin.Context) {
	var filter dto.TeacherFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.admin.ListTeachers(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// TeacherProfile returns the full portfolio of one teacher
// @Summary Teacher profile
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.TeacherDashboardResponse} "Portfolio"
// @Failure 404 {object} dto.APIResponse "Teacher not found"
// @Router /admin/teachers/{id} [get]
func (c *AdminController) TeacherProfile(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "Teacher")
	if !ok {
		return
	}

	resp, err := c.admin.TeacherProfile(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// ListSkills returns the skill catalogue
// @Summary List catalogue skills
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Skill} "Skills"
// @Router /admin/skills [get]
func (c *AdminController) ListSkills(ctx *gin.Context) {
	skills, err := c.admin.ListSkills(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(skills, ""))
}

// CreateSkill adds a catalogue skill
// @Summary Create catalogue skill
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SkillRequest true "Skill"
// @Success 201 {object} dto.APIResponse{data=models.Skill} "Skill created"
// @Failure 409 {object} dto.APIResponse "Skill already exists"
// @Router /admin/skills [post]
func (c *AdminController) CreateSkill(ctx *gin.Context) {
	var req dto.SkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	skill, err := c.admin.CreateSkill(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(skill, "Skill created"))
}

// UpdateSkill rewrites a catalogue skill
// @Summary Update catalogue skill
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Skill ID" Format(uuid)
// @Param request body dto.SkillRequest true "Skill"
// @Success 200 {object} dto.APIResponse{data=models.Skill} "Skill updated"
// @Failure 404 {object} dto.APIResponse "Skill not found"
// @Router /admin/skills/{id} [put]
func (c *AdminController) UpdateSkill(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "Skill")
	if !ok {
		return
	}

	var req dto.SkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	skill, err := c.admin.UpdateSkill(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(skill, "Skill updated"))
}

// ListGoals returns every yearly goal
// @Summary List yearly goals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.YearlyGoal} "Goals"
// @Router /admin/goals [get]
func (c *AdminController) ListGoals(ctx *gin.Context) {
	goals, err := c.admin.ListGoals(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(goals, ""))
}

// CreateGoal adds a yearly goal
// @Summary Create yearly goal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GoalRequest true "Goal"
// @Success 201 {object} dto.APIResponse{data=models.YearlyGoal} "Goal created"
// @Router /admin/goals [post]
func (c *AdminController) CreateGoal(ctx *gin.Context) {
	var req dto.GoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	goal, err := c.admin.CreateGoal(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(goal, "Goal created"))
}

// UpdateGoal rewrites a yearly goal
// @Summary Update yearly goal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID" Format(uuid)
// @Param request body dto.GoalRequest true "Goal"
// @Success 200 {object} dto.APIResponse{data=models.YearlyGoal} "Goal updated"
// @Failure 404 {object} dto.APIResponse "Goal not found"
// @Router /admin/goals/{id} [put]
func (c *AdminController) UpdateGoal(ctx *gin.Context) {
	id, ok := idParam(ctx, "id", "Goal")
	if !ok {
		return
	}

	var req dto.GoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	goal, err := c.admin.UpdateGoal(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(goal, "Goal updated"))
}

// Approvals lists completed skills and goals awaiting review
// @Summary Pending approvals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalsResponse} "Pending approvals"
// @Router /admin/approvals [get]
func (c *AdminController) Approvals(ctx *gin.Context) {
	resp, err := c.admin.Approvals(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// DecideSkill approves or rejects a completed skill
// @Summary Review skill
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher skill ID" Format(uuid)
// @Param request body dto.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherSkillView} "Skill reviewed"
// @Failure 400 {object} dto.APIResponse "Skill is not awaiting review"
// @Router /admin/approvals/skills/{id} [post]
func (c *AdminController) DecideSkill(ctx *gin.Context) {
	admin, ok := currentTeacher(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "Skill")
	if !ok {
		return
	}

	var req dto.ApprovalDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.admin.DecideSkill(ctx.Request.Context(), admin.ID, id, req.Decision)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Skill reviewed"))
}

// DecideGoal approves or rejects a completed goal
// @Summary Review goal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher goal ID" Format(uuid)
// @Param request body dto.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherGoalView} "Goal reviewed"
// @Failure 400 {object} dto.APIResponse "Goal is not awaiting review"
// @Router /admin/approvals/goals/{id} [post]
func (c *AdminController) DecideGoal(ctx *gin.Context) {
	admin, ok := currentTeacher(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id", "Goal")
	if !ok {
		return
	}

	var req dto.ApprovalDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	view, err := c.admin.DecideGoal(ctx.Request.Context(), admin.ID, id, req.Decision)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Goal reviewed"))
}
