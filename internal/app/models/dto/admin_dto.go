package dto

import (
	"github.com/yigit/teacherportfolio/internal/app/models"
)

// AdminDashboardResponse carries the admin overview counters
type AdminDashboardResponse struct {
	TotalTeachers         int64 `json:"totalTeachers" example:"42"`
	ActiveSkills          int64 `json:"activeSkills" example:"12"`
	PendingSkillApprovals int64 `json:"pendingSkillApprovals" example:"3"`
	PendingGoalApprovals  int64 `json:"pendingGoalApprovals" example:"2"`
	PendingApprovals      int64 `json:"pendingApprovals" example:"5"`
}

// TeacherFilterRequest filters the admin teacher listing
type TeacherFilterRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=100"`
}

// TeacherListResponse is one page of teachers
type TeacherListResponse struct {
	Teachers   []TeacherView  `json:"teachers"`
	Pagination PaginationInfo `json:"pagination"`
}

// SkillRequest creates or updates a catalogue skill
type SkillRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=255" example:"Project-based learning"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty" binding:"omitempty,max=100"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// GoalRequest creates or updates a yearly goal
type GoalRequest struct {
	Title       string  `json:"title" binding:"required,min=2,max=255" example:"Prepare two olympiad winners"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Year        int     `json:"year" binding:"required,min=2000,max=2100" example:"2026"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// ApprovalDecisionRequest approves or rejects a completed skill or goal
type ApprovalDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject" example:"approve"`
}

// PendingSkillApproval is a completed teacher skill awaiting review
type PendingSkillApproval struct {
	TeacherSkillView
	TeacherName string `json:"teacherName"`
	TeacherIIN  string `json:"teacherIin"`
}

// PendingGoalApproval is a completed teacher goal awaiting review
type PendingGoalApproval struct {
	TeacherGoalView
	TeacherName string `json:"teacherName"`
	TeacherIIN  string `json:"teacherIin"`
}

// ApprovalsResponse lists everything awaiting an admin decision
type ApprovalsResponse struct {
	Skills []PendingSkillApproval `json:"skills"`
	Goals  []PendingGoalApproval  `json:"goals"`
}

// NewAdminDashboardResponse maps repository counts to the response shape
func NewAdminDashboardResponse(c models.DashboardCounts) AdminDashboardResponse {
	return AdminDashboardResponse{
		TotalTeachers:         c.TotalTeachers,
		ActiveSkills:          c.ActiveSkills,
		PendingSkillApprovals: c.PendingSkillApprovals,
		PendingGoalApprovals:  c.PendingGoalApprovals,
		PendingApprovals:      c.PendingApprovals(),
	}
}
