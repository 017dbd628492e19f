package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResultType tags a student result record
type ResultType string

const (
	ResultBTS              ResultType = "BTS"
	ResultKBO              ResultType = "KBO"
	ResultRegionalOlympiad ResultType = "RegionalOlympiad"
	ResultNationalOlympiad ResultType = "NationalOlympiad"
	ResultLabWork          ResultType = "LabWork"
)

// ResultTypes is the fixed, ordered set of accepted result tags
var ResultTypes = []ResultType{
	ResultBTS,
	ResultKBO,
	ResultRegionalOlympiad,
	ResultNationalOlympiad,
	ResultLabWork,
}

// Valid reports whether r is one of ResultTypes
func (r ResultType) Valid() bool {
	for _, t := range ResultTypes {
		if t == r {
			return true
		}
	}
	return false
}

// Certification holds test scores and qualification flags, one per teacher
type Certification struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TeacherID     uuid.UUID `json:"teacherId" db:"teacher_id"`
	TAT2026       *float64  `json:"tat2026,omitempty" db:"tat_2026"`
	TAT2025       *float64  `json:"tat2025,omitempty" db:"tat_2025"`
	TAT2024       *float64  `json:"tat2024,omitempty" db:"tat_2024"`
	TORScore      *float64  `json:"torScore,omitempty" db:"tor_score"`
	IELTSScore    *float64  `json:"ieltsScore,omitempty" db:"ielts_score"`
	TOEFLScore    *float64  `json:"toeflScore,omitempty" db:"toefl_score"`
	TESOL         bool      `json:"tesol" db:"tesol"`
	CELTA         bool      `json:"celta" db:"celta"`
	IBCertificate bool      `json:"ibCertificate" db:"ib_certificate"`
	APCertificate bool      `json:"apCertificate" db:"ap_certificate"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// StudentResult is a tagged, year-stamped competition or evaluation outcome
type StudentResult struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TeacherID  uuid.UUID       `json:"teacherId" db:"teacher_id"`
	ResultType ResultType      `json:"resultType" db:"result_type"`
	Year       int             `json:"year" db:"year"`
	Data       json.RawMessage `json:"data" db:"data" swaggertype:"object"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// Skill is an admin-managed catalogue entry
type Skill struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Category    *string   `json:"category,omitempty" db:"category"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TeacherSkill links a teacher to a skill they are developing
type TeacherSkill struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	TeacherID   uuid.UUID   `json:"teacherId" db:"teacher_id"`
	SkillID     uuid.UUID   `json:"skillId" db:"skill_id"`
	Status      SkillStatus `json:"status" db:"status"`
	StartedAt   *time.Time  `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt *time.Time  `json:"completedAt,omitempty" db:"completed_at"`
	ApprovedBy  *uuid.UUID  `json:"approvedBy,omitempty" db:"approved_by"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
	Skill       *Skill      `json:"skill,omitempty"`
}

// YearlyGoal is an admin-managed goal for a school year
type YearlyGoal struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Year        int       `json:"year" db:"year"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TeacherGoal links a teacher to a yearly goal
type TeacherGoal struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	TeacherID     uuid.UUID   `json:"teacherId" db:"teacher_id"`
	GoalID        uuid.UUID   `json:"goalId" db:"goal_id"`
	Status        GoalStatus  `json:"status" db:"status"`
	ProgressNotes *string     `json:"progressNotes,omitempty" db:"progress_notes"`
	TargetDate    *time.Time  `json:"targetDate,omitempty" db:"target_date"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty" db:"completed_at"`
	ApprovedBy    *uuid.UUID  `json:"approvedBy,omitempty" db:"approved_by"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
	Goal          *YearlyGoal `json:"goal,omitempty"`
}

// TeacherProfile is the full portfolio view of one teacher
type TeacherProfile struct {
	Teacher        *Teacher        `json:"teacher"`
	Certification  *Certification  `json:"certification,omitempty"`
	StudentResults []StudentResult `json:"studentResults"`
	Skills         []TeacherSkill  `json:"skills"`
	Goals          []TeacherGoal   `json:"goals"`
}

// DashboardCounts are the admin overview numbers
type DashboardCounts struct {
	TotalTeachers         int64 `json:"totalTeachers"`
	ActiveSkills          int64 `json:"activeSkills"`
	PendingSkillApprovals int64 `json:"pendingSkillApprovals"`
	PendingGoalApprovals  int64 `json:"pendingGoalApprovals"`
}

// PendingApprovals sums skill and goal approvals awaiting an admin
func (c DashboardCounts) PendingApprovals() int64 {
	return c.PendingSkillApprovals + c.PendingGoalApprovals
}
