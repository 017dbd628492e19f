package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	TeacherRepository       *TeacherRepository
	CertificationRepository *CertificationRepository
	StudentResultRepository *StudentResultRepository
	SkillRepository         *SkillRepository
	GoalRepository          *GoalRepository
	SessionRepository       *SessionRepository
	IdentityRepository      *IdentityRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		TeacherRepository:       NewTeacherRepository(db),
		CertificationRepository: NewCertificationRepository(db),
		StudentResultRepository: NewStudentResultRepository(db),
		SkillRepository:         NewSkillRepository(db),
		GoalRepository:          NewGoalRepository(db),
		SessionRepository:       NewSessionRepository(db),
		IdentityRepository:      NewIdentityRepository(db),
	}
}
