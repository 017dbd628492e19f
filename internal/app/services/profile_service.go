package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/teacherportfolio/internal/app/auth"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/filestorage"
	"github.com/yigit/teacherportfolio/internal/pkg/helpers"
	"github.com/yigit/teacherportfolio/internal/pkg/validation"
)

const photoDir = "teachers"

// scoreRange is the accepted interval of a certification score
type scoreRange struct {
	field    string
	min, max float64
}

var (
	tatRange   = scoreRange{"TAT", 0, 100}
	torRange   = scoreRange{"TOR", 0, 100}
	ieltsRange = scoreRange{"IELTS", 0, 9}
	toeflRange = scoreRange{"TOEFL", 0, 120}
)

func (r scoreRange) message() string {
	return fmt.Sprintf("%s score must be between %g and %g", r.field, r.min, r.max)
}

func (r scoreRange) check(value *float64) error {
	if value == nil || validation.ValidateNumberRange(*value, r.min, r.max) {
		return nil
	}
	return apperrors.NewValidationError(r.message())
}

// ProfileService serves and edits the portfolio of the signed-in teacher
type ProfileService struct {
	teachers       repositories.ITeacherRepository
	certifications repositories.ICertificationRepository
	results        repositories.IStudentResultRepository
	skills         repositories.ISkillRepository
	goals          repositories.IGoalRepository
	authz          *appauth.AuthorizationService
	storage        filestorage.FileStorage
	logger         zerolog.Logger
	now            func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(
	teachers repositories.ITeacherRepository,
	certifications repositories.ICertificationRepository,
	results repositories.IStudentResultRepository,
	skills repositories.ISkillRepository,
	goals repositories.IGoalRepository,
	authz *appauth.AuthorizationService,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		teachers:       teachers,
		certifications: certifications,
		results:        results,
		skills:         skills,
		goals:          goals,
		authz:          authz,
		storage:        storage,
		logger:         logger,
		now:            time.Now,
	}
}

// Dashboard assembles the full portfolio of teacher
func (s *ProfileService) Dashboard(ctx context.Context, teacher *models.Teacher) (*dto.TeacherDashboardResponse, error) {
	cert, err := s.certifications.GetByTeacherID(ctx, teacher.ID)
	if err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, fmt.Errorf("error loading certification: %w", err)
	}

	skills, err := s.skills.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading skills: %w", err)
	}

	goals, err := s.goals.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading goals: %w", err)
	}

	results, err := s.results.ListByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading student results: %w", err)
	}
	if results == nil {
		results = []models.StudentResult{}
	}

	return &dto.TeacherDashboardResponse{
		Teacher:        NewTeacherView(teacher),
		Certification:  cert,
		Skills:         newSkillViews(skills),
		Goals:          newGoalViews(goals),
		StudentResults: results,
	}, nil
}

// sanitized trims and strips markup; a blank result clears the field
func sanitized(value *string) *string {
	if value == nil {
		return nil
	}
	clean := validation.SanitizeString(*value)
	return &clean
}

func orNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

// UpdateProfile applies the non-nil fields of req to teacher. An empty string
// clears an optional field.
func (s *ProfileService) UpdateProfile(ctx context.Context, teacher *models.Teacher, req *dto.UpdateProfileRequest) (*dto.TeacherView, error) {
	updated := *teacher

	if req.FirstName != nil {
		name := validation.SanitizeString(*req.FirstName)
		if !validation.NewStringValidation(name).WithMinLength(validation.NameMinLength).WithMaxLength(validation.NameMaxLength).Validate() {
			return nil, apperrors.NewValidationError("First name is required")
		}
		updated.FirstName = name
	}
	if req.LastName != nil {
		name := validation.SanitizeString(*req.LastName)
		if !validation.NewStringValidation(name).WithMinLength(validation.NameMinLength).WithMaxLength(validation.NameMaxLength).Validate() {
			return nil, apperrors.NewValidationError("Last name is required")
		}
		updated.LastName = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone != "" && !validation.ValidatePhone(phone) {
			return nil, apperrors.NewValidationError("Invalid phone number format")
		}
		updated.Phone = orNil(&phone)
	}
	if req.DateOfBirth != nil {
		date, err := helpers.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid date of birth")
		}
		updated.DateOfBirth = date
	}
	if req.CategoryExpiration != nil {
		date, err := helpers.ParseDate(req.CategoryExpiration)
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid category expiration date")
		}
		updated.CategoryExpiration = date
	}
	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject != "" && !validation.IsSubject(subject) {
			return nil, apperrors.NewValidationError("Unknown subject")
		}
		updated.Subject = orNil(&subject)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category != "" && !validation.IsCategory(category) {
			return nil, apperrors.NewValidationError("Unknown category")
		}
		updated.Category = orNil(&category)
	}
	if req.GraduatedSchool != nil {
		updated.GraduatedSchool = orNil(sanitized(req.GraduatedSchool))
	}
	if req.CurrentWorkplace != nil {
		updated.CurrentWorkplace = orNil(sanitized(req.CurrentWorkplace))
	}
	if req.AdvancedDegree != nil {
		updated.AdvancedDegree = orNil(sanitized(req.AdvancedDegree))
	}
	if req.TotalExperienceYears != nil {
		updated.TotalExperienceYears = req.TotalExperienceYears
	}
	if req.CurrentSchoolExperience != nil {
		updated.CurrentSchoolExperience = req.CurrentSchoolExperience
	}
	if req.IsHomeroomTeacher != nil {
		updated.IsHomeroomTeacher = *req.IsHomeroomTeacher
	}

	if err := s.teachers.UpdateProfile(ctx, &updated); err != nil {
		return nil, err
	}
	*teacher = updated

	s.logger.Info().Str("teacherID", teacher.ID.String()).Msg("Profile updated")
	view := NewTeacherView(teacher)
	return &view, nil
}

// UpdateCertification validates score ranges and replaces the certification record
func (s *ProfileService) UpdateCertification(ctx context.Context, teacherID uuid.UUID, req *dto.UpdateCertificationRequest) (*models.Certification, error) {
	checks := []struct {
		r     scoreRange
		value *float64
	}{
		{tatRange, req.TAT2026},
		{tatRange, req.TAT2025},
		{tatRange, req.TAT2024},
		{torRange, req.TORScore},
		{ieltsRange, req.IELTSScore},
		{toeflRange, req.TOEFLScore},
	}
	for _, c := range checks {
		if err := c.r.check(c.value); err != nil {
			return nil, err
		}
	}

	cert := &models.Certification{
		ID:            uuid.New(),
		TeacherID:     teacherID,
		TAT2026:       req.TAT2026,
		TAT2025:       req.TAT2025,
		TAT2024:       req.TAT2024,
		TORScore:      req.TORScore,
		IELTSScore:    req.IELTSScore,
		TOEFLScore:    req.TOEFLScore,
		TESOL:         req.TESOL,
		CELTA:         req.CELTA,
		IBCertificate: req.IBCertificate,
		APCertificate: req.APCertificate,
	}
	if err := s.certifications.Upsert(ctx, cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// AddStudentResult stores one tagged result for teacherID
func (s *ProfileService) AddStudentResult(ctx context.Context, teacherID uuid.UUID, req *dto.CreateStudentResultRequest) (*models.StudentResult, error) {
	resultType := models.ResultType(strings.TrimSpace(req.ResultType))
	if !resultType.Valid() {
		return nil, apperrors.NewValidationError("Unknown result type")
	}
	if !HasResultValue(req.Data) {
		return nil, apperrors.NewValidationError("Result data must not be empty")
	}

	result := &models.StudentResult{
		TeacherID:  teacherID,
		ResultType: resultType,
		Year:       req.Year,
		Data:       json.RawMessage(req.Data),
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteStudentResult removes a result owned by teacherID
func (s *ProfileService) DeleteStudentResult(ctx context.Context, teacherID, resultID uuid.UUID) error {
	return s.results.DeleteForTeacher(ctx, resultID, teacherID)
}

// StartSkill adds an active catalogue skill to the teacher as in progress
func (s *ProfileService) StartSkill(ctx context.Context, teacherID, skillID uuid.UUID) (*dto.TeacherSkillView, error) {
	skill, err := s.skills.GetByID(ctx, skillID)
	if err != nil {
		return nil, err
	}
	if !skill.IsActive {
		return nil, apperrors.NewValidationError("This skill is no longer offered")
	}

	started := s.now()
	ts := &models.TeacherSkill{
		TeacherID: teacherID,
		SkillID:   skillID,
		Status:    models.SkillInProgress,
		StartedAt: &started,
	}
	if err := s.skills.AddToTeacher(ctx, ts); err != nil {
		return nil, err
	}
	ts.Skill = skill

	view := newSkillView(*ts)
	return &view, nil
}

// UpdateSkillStatus moves an owned skill record along the teacher transitions
func (s *ProfileService) UpdateSkillStatus(ctx context.Context, teacherID, id uuid.UUID, status string) (*dto.TeacherSkillView, error) {
	to := models.SkillStatus(strings.TrimSpace(status))
	if !to.Valid() {
		return nil, apperrors.NewValidationError("Unknown skill status")
	}

	ts, err := s.authz.OwnedSkill(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if !models.CanTeacherMoveSkill(ts.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, ts.Status, to)
	}

	from := ts.Status
	ts.Status = to
	ts.ApprovedBy = nil
	if to == models.SkillCompleted {
		completed := s.now()
		ts.CompletedAt = &completed
	} else {
		ts.CompletedAt = nil
	}
	if err := s.skills.UpdateTeacherSkillStatus(ctx, ts, from); err != nil {
		return nil, err
	}

	view := newSkillView(*ts)
	return &view, nil
}

// AddGoal adds an active yearly goal to the teacher as not started
func (s *ProfileService) AddGoal(ctx context.Context, teacherID uuid.UUID, req *dto.AddGoalRequest) (*dto.TeacherGoalView, error) {
	goalID, err := uuid.Parse(req.GoalID)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid goal id")
	}
	targetDate, err := helpers.ParseDate(req.TargetDate)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid target date")
	}

	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsActive {
		return nil, apperrors.NewValidationError("This goal is no longer offered")
	}

	tg := &models.TeacherGoal{
		TeacherID:     teacherID,
		GoalID:        goalID,
		Status:        models.GoalNotStarted,
		ProgressNotes: orNil(sanitized(req.ProgressNotes)),
		TargetDate:    targetDate,
	}
	if err := s.goals.AddToTeacher(ctx, tg); err != nil {
		return nil, err
	}
	tg.Goal = goal

	view := newGoalView(*tg)
	return &view, nil
}

// UpdateGoal changes status and/or progress notes of an owned goal record
func (s *ProfileService) UpdateGoal(ctx context.Context, teacherID, id uuid.UUID, req *dto.UpdateGoalRequest) (*dto.TeacherGoalView, error) {
	if req.Status == nil && req.ProgressNotes == nil {
		return nil, apperrors.NewValidationError("Nothing to update")
	}

	tg, err := s.authz.OwnedGoal(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	from := tg.Status

	if req.Status != nil {
		to := models.GoalStatus(strings.TrimSpace(*req.Status))
		if !to.Valid() {
			return nil, apperrors.NewValidationError("Unknown goal status")
		}
		if to != tg.Status {
			if !models.CanTeacherMoveGoal(tg.Status, to) {
				return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, tg.Status, to)
			}
			tg.Status = to
			tg.ApprovedBy = nil
			if to == models.GoalCompleted {
				completed := s.now()
				tg.CompletedAt = &completed
			} else {
				tg.CompletedAt = nil
			}
		}
	}
	if req.ProgressNotes != nil {
		tg.ProgressNotes = orNil(sanitized(req.ProgressNotes))
	}

	if err := s.goals.UpdateTeacherGoal(ctx, tg, from); err != nil {
		return nil, err
	}

	view := newGoalView(*tg)
	return &view, nil
}

// UploadPhoto stores a new profile photo and replaces the previous one
func (s *ProfileService) UploadPhoto(ctx context.Context, teacher *models.Teacher, fileHeader *multipart.FileHeader) (*dto.PhotoUploadResponse, error) {
	stored, err := s.storage.Save(fileHeader, photoDir)
	if err != nil {
		if errors.Is(err, filestorage.ErrNoFile) || errors.Is(err, filestorage.ErrFileTooLarge) || errors.Is(err, filestorage.ErrUnsupportedType) {
			return nil, apperrors.NewValidationError(err.Error())
		}
		return nil, err
	}

	if err := s.teachers.UpdatePhotoURL(ctx, teacher.ID, stored.URL); err != nil {
		_ = s.storage.Delete(stored.URL)
		return nil, err
	}

	if teacher.PhotoURL != nil {
		if err := s.storage.Delete(*teacher.PhotoURL); err != nil {
			s.logger.Warn().Err(err).Str("teacherID", teacher.ID.String()).Msg("Failed to delete previous photo")
		}
	}
	teacher.PhotoURL = &stored.URL

	return &dto.PhotoUploadResponse{PhotoURL: stored.URL}, nil
}

// ReferenceData returns the lists behind the profile forms
func (s *ProfileService) ReferenceData(ctx context.Context) (*dto.ReferenceDataResponse, error) {
	skills, err := s.skills.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("error loading skills: %w", err)
	}
	goals, err := s.goals.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("error loading goals: %w", err)
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	if goals == nil {
		goals = []models.YearlyGoal{}
	}

	return &dto.ReferenceDataResponse{
		Workplaces:  validation.Workplaces,
		Subjects:    validation.Subjects,
		Categories:  validation.Categories,
		ResultTypes: models.ResultTypes,
		Skills:      skills,
		Goals:       goals,
	}, nil
}
