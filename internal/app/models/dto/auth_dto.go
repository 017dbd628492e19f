package dto

import "github.com/google/uuid"

// LoginRequest represents login credentials
type LoginRequest struct {
	IIN      string `json:"iin" binding:"required" example:"900101300123"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful sign-in; the same tokens are set as cookies
type LoginResponse struct {
	Role             string `json:"role" example:"teacher"`
	Landing          string `json:"landing" example:"/teacher/dashboard"`
	AccessToken      string `json:"accessToken"`
	TokenType        string `json:"tokenType" example:"Bearer"`
	ExpiresIn        int    `json:"expiresIn" example:"900"`
	RefreshExpiresIn int    `json:"refreshExpiresIn" example:"604800"`
}

// RefreshTokenRequest carries a refresh token when the cookie is not available
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// ClaimAccountRequest redeems a single-use claim link
type ClaimAccountRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// SessionResponse describes the current session, if any
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	TeacherID     *uuid.UUID `json:"teacherId,omitempty"`
	Email         string     `json:"email,omitempty"`
	Role          string     `json:"role,omitempty"`
	FullName      string     `json:"fullName,omitempty"`
	Landing       string     `json:"landing" example:"/login"`
}
