package services

import (
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/models/dto"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/format"
)

// NewTeacherView adds display values to a teacher
func NewTeacherView(t *models.Teacher) dto.TeacherView {
	view := dto.TeacherView{
		Teacher:  t,
		FullName: format.FullName(t.FirstName, t.LastName),
	}
	if t.Phone != nil {
		view.PhoneDisplay = format.Phone(*t.Phone)
	}
	if t.DateOfBirth != nil {
		view.DateOfBirthDisplay = format.Date(*t.DateOfBirth)
	}
	if t.CategoryExpiration != nil {
		view.CategoryExpirationText = format.Date(*t.CategoryExpiration)
	}
	return view
}

func newSkillView(ts models.TeacherSkill) dto.TeacherSkillView {
	view := dto.TeacherSkillView{
		TeacherSkill: ts,
		StatusLabel:  format.Status(string(ts.Status)),
		StatusColor:  format.StatusColor(string(ts.Status)),
	}
	if ts.StartedAt != nil {
		view.StartedDisplay = format.Date(*ts.StartedAt)
	}
	if ts.CompletedAt != nil {
		view.CompletedDisplay = format.Date(*ts.CompletedAt)
	}
	return view
}

func newGoalView(tg models.TeacherGoal) dto.TeacherGoalView {
	view := dto.TeacherGoalView{
		TeacherGoal: tg,
		StatusLabel: format.Status(string(tg.Status)),
		StatusColor: format.StatusColor(string(tg.Status)),
	}
	if tg.TargetDate != nil {
		view.TargetDateDisplay = format.Date(*tg.TargetDate)
	}
	return view
}

func newSkillViews(skills []models.TeacherSkill) []dto.TeacherSkillView {
	views := make([]dto.TeacherSkillView, 0, len(skills))
	for _, ts := range skills {
		views = append(views, newSkillView(ts))
	}
	return views
}

func newGoalViews(goals []models.TeacherGoal) []dto.TeacherGoalView {
	views := make([]dto.TeacherGoalView, 0, len(goals))
	for _, tg := range goals {
		views = append(views, newGoalView(tg))
	}
	return views
}

func newPendingSkill(owner repositories.TeacherSkillWithOwner) dto.PendingSkillApproval {
	return dto.PendingSkillApproval{
		TeacherSkillView: newSkillView(owner.TeacherSkill),
		TeacherName:      format.FullName(owner.FirstName, owner.LastName),
		TeacherIIN:       owner.IIN,
	}
}

func newPendingGoal(owner repositories.TeacherGoalWithOwner) dto.PendingGoalApproval {
	return dto.PendingGoalApproval{
		TeacherGoalView: newGoalView(owner.TeacherGoal),
		TeacherName:     format.FullName(owner.FirstName, owner.LastName),
		TeacherIIN:      owner.IIN,
	}
}
