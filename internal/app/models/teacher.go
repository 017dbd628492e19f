package models

import (
	"time"

	"github.com/google/uuid"
)

// Teacher defines the account model based on the 'teachers' table
type Teacher struct {
	ID                      uuid.UUID          `json:"id" db:"id"`
	IIN                     string             `json:"iin" db:"iin" example:"123456789012"`
	Email                   string             `json:"email" db:"email" example:"teacher@school.kz"`
	FirstName               string             `json:"firstName" db:"first_name" example:"Aigerim"`
	LastName                string             `json:"lastName" db:"last_name" example:"Bekova"`
	Phone                   *string            `json:"phone,omitempty" db:"phone"`
	DateOfBirth             *time.Time         `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	GraduatedSchool         *string            `json:"graduatedSchool,omitempty" db:"graduated_school"`
	TotalExperienceYears    *int               `json:"totalExperienceYears,omitempty" db:"total_experience_years"`
	CurrentWorkplace        *string            `json:"currentWorkplace,omitempty" db:"current_workplace"`
	CurrentSchoolExperience *int               `json:"currentSchoolExperience,omitempty" db:"current_school_experience"`
	Subject                 *string            `json:"subject,omitempty" db:"subject"`
	Category                *string            `json:"category,omitempty" db:"category"`
	CategoryExpiration      *time.Time         `json:"categoryExpiration,omitempty" db:"category_expiration"`
	IsHomeroomTeacher       bool               `json:"isHomeroomTeacher" db:"is_homeroom_teacher"`
	AdvancedDegree          *string            `json:"advancedDegree,omitempty" db:"advanced_degree"`
	PhotoURL                *string            `json:"photoUrl,omitempty" db:"photo_url"`
	Role                    Role               `json:"role" db:"role" example:"teacher"`
	ProvisioningStatus      ProvisioningStatus `json:"-" db:"provisioning_status"`
	IdentityID              *string            `json:"-" db:"identity_id"`
	CreatedAt               time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time          `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the account carries the admin role
func (t *Teacher) IsAdmin() bool {
	return t.Role == RoleAdmin
}

// IsActive reports whether provisioning has finished for this account
func (t *Teacher) IsActive() bool {
	return t.ProvisioningStatus == ProvisioningActive
}
