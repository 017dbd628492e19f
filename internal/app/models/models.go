package models

// Role is the stored account role
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ProvisioningStatus tracks the teacher row / identity pairing
type ProvisioningStatus string

const (
	// ProvisioningPending: row written, identity not yet confirmed
	ProvisioningPending ProvisioningStatus = "pending"
	ProvisioningActive  ProvisioningStatus = "active"
)

// SkillStatus is the lifecycle state of a teacher skill record
type SkillStatus string

const (
	SkillInProgress SkillStatus = "in_progress"
	SkillCompleted  SkillStatus = "completed"
	SkillApproved   SkillStatus = "approved"
	SkillRejected   SkillStatus = "rejected"
)

// GoalStatus is the lifecycle state of a teacher goal record
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalApproved   GoalStatus = "approved"
	GoalRejected   GoalStatus = "rejected"
)

// Transitions a teacher may make on their own skill records.
// completed -> approved|rejected belongs to admins.
var teacherSkillTransitions = map[SkillStatus][]SkillStatus{
	SkillInProgress: {SkillCompleted},
	SkillCompleted:  {SkillInProgress},
	SkillRejected:   {SkillInProgress},
}

var teacherGoalTransitions = map[GoalStatus][]GoalStatus{
	GoalNotStarted: {GoalInProgress},
	GoalInProgress: {GoalCompleted, GoalNotStarted},
	GoalRejected:   {GoalInProgress},
}

// CanTeacherMoveSkill reports whether a teacher may move a skill from one status to another.
func CanTeacherMoveSkill(from, to SkillStatus) bool {
	for _, s := range teacherSkillTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTeacherMoveGoal reports whether a teacher may move a goal from one status to another.
func CanTeacherMoveGoal(from, to GoalStatus) bool {
	for _, s := range teacherGoalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known skill status
func (s SkillStatus) Valid() bool {
	switch s {
	case SkillInProgress, SkillCompleted, SkillApproved, SkillRejected:
		return true
	}
	return false
}

// Valid reports whether s is a known goal status
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalNotStarted, GoalInProgress, GoalCompleted, GoalApproved, GoalRejected:
		return true
	}
	return false
}
