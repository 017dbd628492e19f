package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/helpers"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
)

// Approval decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// AdminService serves the admin dashboard, catalogue management and approvals
type AdminService struct {
	teachers repositories.ITeacherRepository
	skills   repositories.ISkillRepository
	goals    repositories.IGoalRepository
	profiles *ProfileService
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(
	teachers repositories.ITeacherRepository,
	skills repositories.ISkillRepository,
	goals repositories.IGoalRepository,
	profiles *ProfileService,
	logger zerolog.Logger,
) *AdminService {
	return &AdminService{
		teachers: teachers,
		skills:   skills,
		goals:    goals,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// Dashboard returns the overview counters
func (s *AdminService) Dashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	var (
		counts models.DashboardCounts
		err    error
	)

	if counts.TotalTeachers, err = s.teachers.CountActiveByRole(ctx, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("error counting teachers: %w", err)
	}
	if counts.ActiveSkills, err = s.skills.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("error counting skills: %w", err)
	}
	if counts.PendingSkillApprovals, err = s.skills.CountByStatus(ctx, models.SkillCompleted); err != nil {
		return nil, fmt.Errorf("error counting skill approvals: %w", err)
	}
	if counts.PendingGoalApprovals, err = s.goals.CountByStatus(ctx, models.GoalCompleted); err != nil {
		return nil, fmt.Errorf("error counting goal approvals: %w", err)
	}

	resp := dto.NewAdminDashboardResponse(counts)
	return &resp, nil
}

// ListTeachers returns one page of teachers
func (s *AdminService) ListTeachers(ctx context.Context, filter *dto.TeacherFilterRequest) (*dto.TeacherListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)

	teachers, total, err := s.teachers.List(ctx, strings.TrimSpace(filter.Search), offset, limit)
	if err != nil {
		return nil, err
	}

	views := make([]dto.TeacherView, 0, len(teachers))
	for _, t := range teachers {
		views = append(views, NewTeacherView(t))
	}

	return &dto.TeacherListResponse{
		Teachers:   views,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, filter.PageSize),
	}, nil
}

// TeacherProfile returns the full portfolio of any teacher
func (s *AdminService) TeacherProfile(ctx context.Context, id uuid.UUID) (*dto.TeacherDashboardResponse, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profiles.Dashboard(ctx, teacher)
}

// ListSkills returns the whole skill catalogue, inactive entries included
func (s *AdminService) ListSkills(ctx context.Context) ([]models.Skill, error) {
	skills, err := s.skills.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	return skills, nil
}

func skillFromRequest(req *dto.SkillRequest) (*models.Skill, error) {
	name := validation.SanitizeString(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Skill name is required")
	}
	skill := &models.Skill{
		Name:        name,
		Description: orNil(sanitized(req.Description)),
		Category:    orNil(sanitized(req.Category)),
		IsActive:    true,
	}
	if req.IsActive != nil {
		skill.IsActive = *req.IsActive
	}
	return skill, nil
}

// CreateSkill adds a catalogue skill
func (s *AdminService) CreateSkill(ctx context.Context, req *dto.SkillRequest) (*models.Skill, error) {
	skill, err := skillFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.skills.Create(ctx, skill); err != nil {
		return nil, err
	}
	s.logger.Info().Str("skillID", skill.ID.String()).Str("name", skill.Name).Msg("Skill created")
	return skill, nil
}

// UpdateSkill rewrites a catalogue skill
func (s *AdminService) UpdateSkill(ctx context.Context, id uuid.UUID, req *dto.SkillRequest) (*models.Skill, error) {
	skill, err := skillFromRequest(req)
	if err != nil {
		return nil, err
	}
	skill.ID = id
	if err := s.skills.Update(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// ListGoals returns every yearly goal, inactive entries included
func (s *AdminService) ListGoals(ctx context.Context) ([]models.YearlyGoal, error) {
	goals, err := s.goals.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []models.YearlyGoal{}
	}
	return goals, nil
}

func goalFromRequest(req *dto.GoalRequest) (*models.YearlyGoal, error) {
	title := validation.SanitizeString(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("Goal title is required")
	}
	goal := &models.YearlyGoal{
		Title:       title,
		Description: orNil(sanitized(req.Description)),
		Year:        req.Year,
		IsActive:    true,
	}
	if req.IsActive != nil {
		goal.IsActive = *req.IsActive
	}
	return goal, nil
}

// CreateGoal adds a yearly goal
func (s *AdminService) CreateGoal(ctx context.Context, req *dto.GoalRequest) (*models.YearlyGoal, error) {
	goal, err := goalFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	s.logger.Info().Str("goalID", goal.ID.String()).Int("year", goal.Year).Msg("Goal created")
	return goal, nil
}

// UpdateGoal rewrites a yearly goal
func (s *AdminService) UpdateGoal(ctx context.Context, id uuid.UUID, req *dto.GoalRequest) (*models.YearlyGoal, error) {
	goal, err := goalFromRequest(req)
	if err != nil {
		return nil, err
	}
	goal.ID = id
	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Approvals lists completed skills and goals awaiting a decision
func (s *AdminService) Approvals(ctx context.Context) (*dto.ApprovalsResponse, error) {
	skills, err := s.skills.ListByStatus(ctx, models.SkillCompleted)
	if err != nil {
		return nil, fmt.Errorf("error loading pending skills: %w", err)
	}
	goals, err := s.goals.ListByStatus(ctx, models.GoalCompleted)
	if err != nil {
		return nil, fmt.Errorf("error loading pending goals: %w", err)
	}

	resp := &dto.ApprovalsResponse{
		Skills: make([]dto.PendingSkillApproval, 0, len(skills)),
		Goals:  make([]dto.PendingGoalApproval, 0, len(goals)),
	}
	for _, owner := range skills {
		resp.Skills = append(resp.Skills, newPendingSkill(owner))
	}
	for _, owner := range goals {
		resp.Goals = append(resp.Goals, newPendingGoal(owner))
	}
	return resp, nil
}

func checkDecision(decision string) error {
	if decision != DecisionApprove && decision != DecisionReject {
		return apperrors.NewValidationError("Decision must be approve or reject")
	}
	return nil
}

// DecideSkill approves or rejects a completed teacher skill
func (s *AdminService) DecideSkill(ctx context.Context, adminID, id uuid.UUID, decision string) (*dto.TeacherSkillView, error) {
	if err := checkDecision(decision); err != nil {
		return nil, err
	}

	ts, err := s.skills.GetTeacherSkill(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts.Status != models.SkillCompleted {
		return nil, fmt.Errorf("%w: only completed skills can be reviewed", apperrors.ErrInvalidStatusTransition)
	}

	ts.Status = models.SkillRejected
	if decision == DecisionApprove {
		ts.Status = models.SkillApproved
	}
	ts.ApprovedBy = &adminID
	if err := s.skills.UpdateTeacherSkillStatus(ctx, ts, models.SkillCompleted); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("teacherSkillID", id.String()).
		Str("adminID", adminID.String()).
		Str("status", string(ts.Status)).
		Msg("Skill reviewed")
	view := newSkillView(*ts)
	return &view, nil
}

// DecideGoal approves or rejects a completed teacher goal
func (s *AdminService) DecideGoal(ctx context.Context, adminID, id uuid.UUID, decision string) (*dto.TeacherGoalView, error) {
	if err := checkDecision(decision); err != nil {
		return nil, err
	}

	tg, err := s.goals.GetTeacherGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if tg.Status != models.GoalCompleted {
		return nil, fmt.Errorf("%w: only completed goals can be reviewed", apperrors.ErrInvalidStatusTransition)
	}

	tg.Status = models.GoalRejected
	if decision == DecisionApprove {
		tg.Status = models.GoalApproved
	}
	tg.ApprovedBy = &adminID
	if err := s.goals.UpdateTeacherGoal(ctx, tg, models.GoalCompleted); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("teacherGoalID", id.String()).
		Str("adminID", adminID.String()).
		Str("status", string(tg.Status)).
		Msg("Goal reviewed")
	view := newGoalView(*tg)
	return &view, nil
}
