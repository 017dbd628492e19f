package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/teacherportfolio/internal/app/models"
)

// UpdateProfileRequest edits the personal part of a teacher profile.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName               *string `json:"firstName,omitempty" binding:"omitempty,min=1,max=100"`
	LastName                *string `json:"lastName,omitempty" binding:"omitempty,min=1,max=100"`
	Phone                   *string `json:"phone,omitempty" binding:"omitempty,kzphone"`
	DateOfBirth             *string `json:"dateOfBirth,omitempty" example:"1990-01-01"`
	GraduatedSchool         *string `json:"graduatedSchool,omitempty" binding:"omitempty,max=255"`
	TotalExperienceYears    *int    `json:"totalExperienceYears,omitempty" binding:"omitempty,min=0,max=70"`
	CurrentWorkplace        *string `json:"currentWorkplace,omitempty" binding:"omitempty,max=255"`
	CurrentSchoolExperience *int    `json:"currentSchoolExperience,omitempty" binding:"omitempty,min=0,max=70"`
	Subject                 *string `json:"subject,omitempty" binding:"omitempty,subject"`
	Category                *string `json:"category,omitempty" binding:"omitempty,category"`
	CategoryExpiration      *string `json:"categoryExpiration,omitempty" example:"2028-06-30"`
	IsHomeroomTeacher       *bool   `json:"isHomeroomTeacher,omitempty"`
	AdvancedDegree          *string `json:"advancedDegree,omitempty" binding:"omitempty,max=255"`
}

// UpdateCertificationRequest replaces the certification record of a teacher
type UpdateCertificationRequest struct {
	TAT2026       *float64 `json:"tat2026,omitempty"`
	TAT2025       *float64 `json:"tat2025,omitempty"`
	TAT2024       *float64 `json:"tat2024,omitempty"`
	TORScore      *float64 `json:"torScore,omitempty"`
	IELTSScore    *float64 `json:"ieltsScore,omitempty"`
	TOEFLScore    *float64 `json:"toeflScore,omitempty"`
	TESOL         bool     `json:"tesol"`
	CELTA         bool     `json:"celta"`
	IBCertificate bool     `json:"ibCertificate"`
	APCertificate bool     `json:"apCertificate"`
}

// CreateStudentResultRequest adds one tagged student result
type CreateStudentResultRequest struct {
	ResultType string          `json:"resultType" binding:"required" example:"KBO"`
	Year       int             `json:"year" binding:"required,min=2000,max=2100" example:"2026"`
	Data       json.RawMessage `json:"data" binding:"required" swaggertype:"object"`
}

// StartSkillRequest links a catalogue skill to the current teacher
type StartSkillRequest struct {
	SkillID string `json:"skillId" binding:"required,uuid"`
}

// UpdateSkillStatusRequest moves a teacher skill to another status
type UpdateSkillStatusRequest struct {
	Status string `json:"status" binding:"required" example:"completed"`
}

// AddGoalRequest links a yearly goal to the current teacher
type AddGoalRequest struct {
	GoalID        string  `json:"goalId" binding:"required,uuid"`
	TargetDate    *string `json:"targetDate,omitempty" example:"2026-12-31"`
	ProgressNotes *string `json:"progressNotes,omitempty" binding:"omitempty,max=2000"`
}

// UpdateGoalRequest changes the status and/or notes of a teacher goal
type UpdateGoalRequest struct {
	Status        *string `json:"status,omitempty" example:"in_progress"`
	ProgressNotes *string `json:"progressNotes,omitempty" binding:"omitempty,max=2000"`
}

// TeacherView is a teacher with display-ready values next to the raw ones
type TeacherView struct {
	*models.Teacher
	FullName               string `json:"fullName" example:"Aigerim Bekova"`
	PhoneDisplay           string `json:"phoneDisplay,omitempty" example:"+7 (701) 234-56-78"`
	DateOfBirthDisplay     string `json:"dateOfBirthDisplay,omitempty" example:"January 1, 1990"`
	CategoryExpirationText string `json:"categoryExpirationDisplay,omitempty"`
}

// TeacherSkillView is a teacher skill with its status label and badge color
type TeacherSkillView struct {
	models.TeacherSkill
	StatusLabel      string `json:"statusLabel" example:"In Progress"`
	StatusColor      string `json:"statusColor" example:"blue"`
	StartedDisplay   string `json:"startedDisplay,omitempty"`
	CompletedDisplay string `json:"completedDisplay,omitempty"`
}

// TeacherGoalView is a teacher goal with its status label and badge color
type TeacherGoalView struct {
	models.TeacherGoal
	StatusLabel       string `json:"statusLabel" example:"Not Started"`
	StatusColor       string `json:"statusColor" example:"gray"`
	TargetDateDisplay string `json:"targetDateDisplay,omitempty"`
}

// TeacherDashboardResponse is the full portfolio page of one teacher
type TeacherDashboardResponse struct {
	Teacher        TeacherView            `json:"teacher"`
	Certification  *models.Certification  `json:"certification,omitempty"`
	Skills         []TeacherSkillView     `json:"skills"`
	Goals          []TeacherGoalView      `json:"goals"`
	StudentResults []models.StudentResult `json:"studentResults"`
}

// PhotoUploadResponse reports where an uploaded profile photo is served from
type PhotoUploadResponse struct {
	PhotoURL string `json:"photoUrl" example:"http://localhost:8080/uploads/teachers/1f0e.jpg"`
}

// ReferenceDataResponse holds the lists used by profile forms
type ReferenceDataResponse struct {
	Workplaces  []string            `json:"workplaces"`
	Subjects    []string            `json:"subjects"`
	Categories  []string            `json:"categories"`
	ResultTypes []models.ResultType `json:"resultTypes"`
	Skills      []models.Skill      `json:"skills"`
	Goals       []models.YearlyGoal `json:"goals"`
}

// IDResponse carries the id of a created record
type IDResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
