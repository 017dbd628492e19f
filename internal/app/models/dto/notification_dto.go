package dto

// WelcomeEmailRequest is the payload of the welcome-email function.
// Exactly one of TemporaryPassword and ClaimURL is set.
type WelcomeEmailRequest struct {
	Email             string `json:"email" example:"teacher@school.kz"`
	FirstName         string `json:"firstName" example:"Aigerim"`
	LastName          string `json:"lastName" example:"Bekova"`
	IIN               string `json:"iin" example:"900101300123"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
	ClaimURL          string `json:"claimUrl,omitempty"`
}

// WelcomeEmailResponse is what the function answers after queueing the message
type WelcomeEmailResponse struct {
	Success   bool   `json:"success" example:"true"`
	Message   string `json:"message" example:"Email queued for sending"`
	Recipient string `json:"recipient" example:"teacher@school.kz"`
}
