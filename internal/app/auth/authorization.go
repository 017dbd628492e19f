package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/logger"
)

// Authorization errors
var (
	ErrNotOwner         = errors.New("this record belongs to another teacher")
	ErrPermissionDenied = apperrors.ErrPermissionDenied
)

// AuthorizationService enforces row ownership: a teacher only touches their own
// skill and goal records.
type AuthorizationService struct {
	skillRepo repositories.ISkillRepository
	goalRepo  repositories.IGoalRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(skillRepo repositories.ISkillRepository, goalRepo repositories.IGoalRepository) *AuthorizationService {
	return &AuthorizationService{
		skillRepo: skillRepo,
		goalRepo:  goalRepo,
	}
}

// OwnedSkill loads a teacher skill record and checks it belongs to teacherID
func (s *AuthorizationService) OwnedSkill(ctx context.Context, id, teacherID uuid.UUID) (*models.TeacherSkill, error) {
	ts, err := s.skillRepo.GetTeacherSkill(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts.TeacherID != teacherID {
		logger.Warn().
			Str("teacherSkillID", id.String()).
			Str("teacherID", teacherID.String()).
			Msg("Teacher tried to modify a skill record of another teacher")
		return nil, apperrors.NewCustomError(ErrPermissionDenied, ErrNotOwner.Error())
	}
	return ts, nil
}

// OwnedGoal loads a teacher goal record and checks it belongs to teacherID
func (s *AuthorizationService) OwnedGoal(ctx context.Context, id, teacherID uuid.UUID) (*models.TeacherGoal, error) {
	tg, err := s.goalRepo.GetTeacherGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if tg.TeacherID != teacherID {
		logger.Warn().
			Str("teacherGoalID", id.String()).
			Str("teacherID", teacherID.String()).
			Msg("Teacher tried to modify a goal record of another teacher")
		return nil, apperrors.NewCustomError(ErrPermissionDenied, ErrNotOwner.Error())
	}
	return tg, nil
}
