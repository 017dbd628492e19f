package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

// RegisterTeacherRequest is the payload posted by the registration form webhook
type RegisterTeacherRequest struct {
	IIN       string `json:"iin" example:"900101300123"`
	Email     string `json:"email" example:"teacher@school.kz"`
	FirstName string `json:"firstName" example:"Aigerim"`
	LastName  string `json:"lastName" example:"Bekova"`

	Phone                   *string        `json:"phone,omitempty"`
	DateOfBirth             *string        `json:"dateOfBirth,omitempty" example:"1990-01-01"`
	GraduatedSchool         *string        `json:"graduatedSchool,omitempty"`
	TotalExperience         OptionalNumber `json:"totalExperience" swaggertype:"integer"`
	CurrentWorkplace        *string        `json:"currentWorkplace,omitempty"`
	CurrentSchoolExperience OptionalNumber `json:"currentSchoolExperience" swaggertype:"integer"`
	Subject                 *string        `json:"subject,omitempty"`
	Category                *string        `json:"category,omitempty"`
	CategoryExpiration      *string        `json:"categoryExpiration,omitempty" example:"2028-06-30"`
	IsHomeroomTeacher       OptionalFlag   `json:"isHomeroomTeacher" swaggertype:"boolean"`
	AdvancedDegree          *string        `json:"advancedDegree,omitempty"`

	TAT2026       OptionalNumber `json:"tat2026" swaggertype:"number"`
	TAT2025       OptionalNumber `json:"tat2025" swaggertype:"number"`
	TAT2024       OptionalNumber `json:"tat2024" swaggertype:"number"`
	TORScore      OptionalNumber `json:"torScore" swaggertype:"number"`
	IELTSScore    OptionalNumber `json:"ieltsScore" swaggertype:"number"`
	TOEFLScore    OptionalNumber `json:"toeflScore" swaggertype:"number"`
	TESOL         OptionalFlag   `json:"tesol" swaggertype:"boolean"`
	CELTA         OptionalFlag   `json:"celta" swaggertype:"boolean"`
	IBCertificate OptionalFlag   `json:"ibCertificate" swaggertype:"boolean"`
	APCertificate OptionalFlag   `json:"apCertificate" swaggertype:"boolean"`

	BTS              json.RawMessage `json:"BTS,omitempty" swaggertype:"object"`
	KBO              json.RawMessage `json:"KBO,omitempty" swaggertype:"object"`
	RegionalOlympiad json.RawMessage `json:"RegionalOlympiad,omitempty" swaggertype:"object"`
	NationalOlympiad json.RawMessage `json:"NationalOlympiad,omitempty" swaggertype:"object"`
	LabWork          json.RawMessage `json:"LabWork,omitempty" swaggertype:"object"`
}

// RegisterTeacherResponse is returned to the webhook on success
type RegisterTeacherResponse struct {
	Success   bool      `json:"success" example:"true"`
	TeacherID uuid.UUID `json:"teacherId"`
	Message   string    `json:"message" example:"Teacher registration completed successfully"`
}

// WebhookError is the flat error body the form webhook understands
type WebhookError struct {
	Error   string `json:"error" example:"Invalid IIN format. Must be 12 digits."`
	Details string `json:"details,omitempty"`
}
