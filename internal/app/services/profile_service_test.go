package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/teacherportfolio/internal/app/auth"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
)

type portfolioHarness struct {
	teachers       *memTeachers
	certifications *memCertifications
	results        *memResults
	skills         *memSkills
	goals          *memGoals
	profiles       *ProfileService
	admin          *AdminService
	teacher        *models.Teacher
}

func newPortfolioHarness() *portfolioHarness {
	h := &portfolioHarness{
		teachers:       newMemTeachers(),
		certifications: newMemCertifications(),
		results:        &memResults{},
		skills:         newMemSkills(),
		goals:          newMemGoals(),
	}
	authz := appauth.NewAuthorizationService(h.skills, h.goals)
	h.profiles = NewProfileService(h.teachers, h.certifications, h.results, h.skills, h.goals, authz, nil, testLogger())
	h.admin = NewAdminService(h.teachers, h.skills, h.goals, h.profiles, testLogger())
	h.teacher = h.teachers.put(&models.Teacher{
		IIN:                "900101300123",
		Email:              "aigerim@school.kz",
		FirstName:          "Aigerim",
		LastName:           "Bekova",
		Role:               models.RoleTeacher,
		ProvisioningStatus: models.ProvisioningActive,
		CreatedAt:          time.Now(),
	})
	return h
}

func (h *portfolioHarness) catalogueSkill(t *testing.T, active bool) *models.Skill {
	t.Helper()
	skill := &models.Skill{Name: "Formative assessment " + uuid.NewString(), IsActive: active}
	require.NoError(t, h.skills.Create(context.Background(), skill))
	return skill
}

func (h *portfolioHarness) yearlyGoal(t *testing.T, active bool) *models.YearlyGoal {
	t.Helper()
	goal := &models.YearlyGoal{Title: "Run an open lesson", Year: time.Now().Year(), IsActive: active}
	require.NoError(t, h.goals.Create(context.Background(), goal))
	return goal
}

func ptr[T any](v T) *T {
	return &v
}

func TestUpdateProfile(t *testing.T) {
	h := newPortfolioHarness()

	view, err := h.profiles.UpdateProfile(context.Background(), h.teacher, &dto.UpdateProfileRequest{
		FirstName:       ptr("  Dana "),
		Phone:           ptr("+7 (701) 234-56-78"),
		DateOfBirth:     ptr("1990-05-17"),
		GraduatedSchool: ptr("<b>KazNU</b>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", view.Teacher.FirstName)
	assert.Equal(t, "Dana Bekova", view.FullName)
	require.NotNil(t, h.teacher.DateOfBirth)
	assert.Equal(t, 1990, h.teacher.DateOfBirth.Year())

	stored := h.teachers.get(h.teacher.ID)
	assert.Equal(t, "Dana", stored.FirstName)
	require.NotNil(t, stored.GraduatedSchool)
	assert.NotContains(t, *stored.GraduatedSchool, "<b>")

	// an empty string clears an optional field
	_, err = h.profiles.UpdateProfile(context.Background(), h.teacher, &dto.UpdateProfileRequest{Phone: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, h.teachers.get(h.teacher.ID).Phone)
}

func TestUpdateProfileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  dto.UpdateProfileRequest
	}{
		{"blank first name", dto.UpdateProfileRequest{FirstName: ptr("   ")}},
		{"bad phone", dto.UpdateProfileRequest{Phone: ptr("12")}},
		{"bad date", dto.UpdateProfileRequest{DateOfBirth: ptr("17.05.1990")}},
		{"unknown subject", dto.UpdateProfileRequest{Subject: ptr("Alchemy")}},
		{"unknown category", dto.UpdateProfileRequest{Category: ptr("Grandmaster")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPortfolioHarness()
			_, err := h.profiles.UpdateProfile(context.Background(), h.teacher, &tt.req)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Equal(t, "Aigerim", h.teachers.get(h.teacher.ID).FirstName)
		})
	}
}

func TestUpdateCertificationRanges(t *testing.T) {
	h := newPortfolioHarness()

	_, err := h.profiles.UpdateCertification(context.Background(), h.teacher.ID, &dto.UpdateCertificationRequest{IELTSScore: ptr(9.5)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.profiles.UpdateCertification(context.Background(), h.teacher.ID, &dto.UpdateCertificationRequest{TOEFLScore: ptr(121.0)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	cert, err := h.profiles.UpdateCertification(context.Background(), h.teacher.ID, &dto.UpdateCertificationRequest{
		TAT2025:    ptr(87.0),
		IELTSScore: ptr(7.5),
		CELTA:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, h.teacher.ID, cert.TeacherID)

	stored, err := h.certifications.GetByTeacherID(context.Background(), h.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.5, *stored.IELTSScore)
	assert.True(t, stored.CELTA)
}

func TestStudentResults(t *testing.T) {
	h := newPortfolioHarness()

	_, err := h.profiles.AddStudentResult(context.Background(), h.teacher.ID, &dto.CreateStudentResultRequest{
		ResultType: "Chess", Year: 2025, Data: json.RawMessage(`{"a":1}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.profiles.AddStudentResult(context.Background(), h.teacher.ID, &dto.CreateStudentResultRequest{
		ResultType: "KBO", Year: 2025, Data: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	result, err := h.profiles.AddStudentResult(context.Background(), h.teacher.ID, &dto.CreateStudentResultRequest{
		ResultType: "KBO", Year: 2025, Data: json.RawMessage(`{"medals":2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResultKBO, result.ResultType)

	err = h.profiles.DeleteStudentResult(context.Background(), uuid.New(), result.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentResultNotFound)

	require.NoError(t, h.profiles.DeleteStudentResult(context.Background(), h.teacher.ID, result.ID))
	assert.Empty(t, h.results.rows)
}

func TestSkillLifecycle(t *testing.T) {
	h := newPortfolioHarness()
	skill := h.catalogueSkill(t, true)

	started, err := h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SkillInProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	_, err = h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceAlreadyExists)

	// a teacher cannot approve their own skill
	_, err = h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, started.ID, "approved")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	completed, err := h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, started.ID, "completed")
	require.NoError(t, err)
	assert.NotNil(t, completed.CompletedAt)

	admin := uuid.New()
	rejected, err := h.admin.DecideSkill(context.Background(), admin, started.ID, DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, models.SkillRejected, rejected.Status)
	assert.Equal(t, admin, *rejected.ApprovedBy)

	// a rejected skill can be reworked and submitted again
	reopened, err := h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, started.ID, "in_progress")
	require.NoError(t, err)
	assert.Nil(t, reopened.ApprovedBy)
	assert.Nil(t, reopened.CompletedAt)

	_, err = h.admin.DecideSkill(context.Background(), admin, started.ID, DecisionApprove)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
}

func TestSkillReviewLosesToConcurrentRework(t *testing.T) {
	h := newPortfolioHarness()
	skill := h.catalogueSkill(t, true)
	ts, err := h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	require.NoError(t, err)
	_, err = h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, ts.ID, "completed")
	require.NoError(t, err)

	// the teacher reopens the skill while the admin is reviewing it
	var reworkErr error
	h.skills.afterGet = func(id uuid.UUID) {
		h.skills.afterGet = nil
		_, reworkErr = h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, id, "in_progress")
	}

	_, err = h.admin.DecideSkill(context.Background(), uuid.New(), ts.ID, DecisionApprove)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	require.NoError(t, reworkErr)

	stored, err := h.skills.GetTeacherSkill(context.Background(), ts.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SkillInProgress, stored.Status)
	assert.Nil(t, stored.ApprovedBy)
}

func TestGoalReviewedOnce(t *testing.T) {
	h := newPortfolioHarness()
	goal := h.yearlyGoal(t, true)
	tg, err := h.profiles.AddGoal(context.Background(), h.teacher.ID, &dto.AddGoalRequest{GoalID: goal.ID.String()})
	require.NoError(t, err)
	for _, status := range []string{"in_progress", "completed"} {
		_, err = h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{Status: ptr(status)})
		require.NoError(t, err)
	}

	// another admin rejects between our read and our write
	rejecter := uuid.New()
	var rejectErr error
	h.goals.afterGet = func(id uuid.UUID) {
		h.goals.afterGet = nil
		_, rejectErr = h.admin.DecideGoal(context.Background(), rejecter, id, DecisionReject)
	}

	_, err = h.admin.DecideGoal(context.Background(), uuid.New(), tg.ID, DecisionApprove)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	require.NoError(t, rejectErr)

	stored, err := h.goals.GetTeacherGoal(context.Background(), tg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalRejected, stored.Status)
	assert.Equal(t, rejecter, *stored.ApprovedBy)
}

func TestStartInactiveSkill(t *testing.T) {
	h := newPortfolioHarness()
	skill := h.catalogueSkill(t, false)

	_, err := h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.profiles.StartSkill(context.Background(), h.teacher.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrSkillNotFound)
}

func TestOwnershipIsEnforced(t *testing.T) {
	h := newPortfolioHarness()
	skill := h.catalogueSkill(t, true)
	goal := h.yearlyGoal(t, true)

	ts, err := h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	require.NoError(t, err)
	tg, err := h.profiles.AddGoal(context.Background(), h.teacher.ID, &dto.AddGoalRequest{GoalID: goal.ID.String()})
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = h.profiles.UpdateSkillStatus(context.Background(), stranger, ts.ID, "completed")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = h.profiles.UpdateGoal(context.Background(), stranger, tg.ID, &dto.UpdateGoalRequest{Status: ptr("in_progress")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGoalLifecycle(t *testing.T) {
	h := newPortfolioHarness()
	goal := h.yearlyGoal(t, true)

	_, err := h.profiles.AddGoal(context.Background(), h.teacher.ID, &dto.AddGoalRequest{GoalID: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	tg, err := h.profiles.AddGoal(context.Background(), h.teacher.ID, &dto.AddGoalRequest{
		GoalID:     goal.ID.String(),
		TargetDate: ptr("2026-05-25"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.GoalNotStarted, tg.Status)
	require.NotNil(t, tg.TargetDate)

	_, err = h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{Status: ptr("completed")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{Status: ptr("in_progress")})
	require.NoError(t, err)

	done, err := h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{
		Status:        ptr("completed"),
		ProgressNotes: ptr("Lesson given on 12 March"),
	})
	require.NoError(t, err)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, "Lesson given on 12 March", *done.ProgressNotes)

	approvals, err := h.admin.Approvals(context.Background())
	require.NoError(t, err)
	require.Len(t, approvals.Goals, 1)
	assert.Equal(t, "Aigerim Bekova", approvals.Goals[0].TeacherName)
	assert.Empty(t, approvals.Skills)

	_, err = h.admin.DecideGoal(context.Background(), uuid.New(), tg.ID, "maybe")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	approved, err := h.admin.DecideGoal(context.Background(), uuid.New(), tg.ID, DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.GoalApproved, approved.Status)

	// approved records are final for the teacher
	_, err = h.profiles.UpdateGoal(context.Background(), h.teacher.ID, tg.ID, &dto.UpdateGoalRequest{Status: ptr("in_progress")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
}

func TestDashboardWithoutCertification(t *testing.T) {
	h := newPortfolioHarness()

	resp, err := h.profiles.Dashboard(context.Background(), h.teacher)
	require.NoError(t, err)
	assert.Nil(t, resp.Certification)
	assert.NotNil(t, resp.Skills)
	assert.NotNil(t, resp.Goals)
	assert.NotNil(t, resp.StudentResults)
	assert.Equal(t, "Aigerim Bekova", resp.Teacher.FullName)
}

func TestAdminDashboardCounts(t *testing.T) {
	h := newPortfolioHarness()
	h.teachers.put(&models.Teacher{IIN: "800101300111", Role: models.RoleAdmin, ProvisioningStatus: models.ProvisioningActive})
	h.teachers.put(&models.Teacher{IIN: "800101300112", Role: models.RoleTeacher, ProvisioningStatus: models.ProvisioningPending})
	skill := h.catalogueSkill(t, true)
	h.catalogueSkill(t, false)

	ts, err := h.profiles.StartSkill(context.Background(), h.teacher.ID, skill.ID)
	require.NoError(t, err)
	_, err = h.profiles.UpdateSkillStatus(context.Background(), h.teacher.ID, ts.ID, "completed")
	require.NoError(t, err)

	resp, err := h.admin.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.TotalTeachers)
	assert.Equal(t, int64(1), resp.ActiveSkills)
	assert.Equal(t, int64(1), resp.PendingSkillApprovals)
	assert.Equal(t, int64(0), resp.PendingGoalApprovals)
}

func TestAdminCatalogue(t *testing.T) {
	h := newPortfolioHarness()

	_, err := h.admin.CreateSkill(context.Background(), &dto.SkillRequest{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	skill, err := h.admin.CreateSkill(context.Background(), &dto.SkillRequest{Name: "Olympiad preparation", Category: ptr("Enrichment")})
	require.NoError(t, err)
	assert.True(t, skill.IsActive)

	updated, err := h.admin.UpdateSkill(context.Background(), skill.ID, &dto.SkillRequest{Name: "Olympiad coaching", IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = h.admin.UpdateSkill(context.Background(), uuid.New(), &dto.SkillRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, apperrors.ErrSkillNotFound)

	all, err := h.admin.ListSkills(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ref, err := h.profiles.ReferenceData(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ref.Skills)
	assert.Len(t, ref.ResultTypes, 5)

	goal, err := h.admin.CreateGoal(context.Background(), &dto.GoalRequest{Title: "Publish an article", Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, 2026, goal.Year)

	_, err = h.admin.CreateGoal(context.Background(), &dto.GoalRequest{Title: ""})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestAdminTeacherList(t *testing.T) {
	h := newPortfolioHarness()
	h.teachers.put(&models.Teacher{IIN: "850202400222", FirstName: "Dana", LastName: "Sarsen", Role: models.RoleTeacher, ProvisioningStatus: models.ProvisioningActive})

	resp, err := h.admin.ListTeachers(context.Background(), &dto.TeacherFilterRequest{Search: "sarsen", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.Teachers, 1)
	assert.Equal(t, "Dana Sarsen", resp.Teachers[0].FullName)

	profile, err := h.admin.TeacherProfile(context.Background(), h.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, h.teacher.ID, profile.Teacher.Teacher.ID)

	_, err = h.admin.TeacherProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTeacherNotFound)
}
