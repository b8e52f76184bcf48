package models

import "time"

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Mode     string `json:"mode" validate:"omitempty,oneof=user admin"`
}

type PasswordUpdateRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type InviteRequest struct {
	Email             string `json:"email" validate:"required,email"`
	DisplayName       string `json:"display_name" validate:"required,max=120"`
	TemporaryPassword string `json:"temporary_password" validate:"required,min=6"`
	IsAdmin           bool   `json:"is_admin"`
	ConfirmAdmin      bool   `json:"confirm_admin"`
}

type NavigateRequest struct {
	Page string `json:"page" validate:"required"`
}

type LoginResponse struct {
	Token              string    `json:"token"`
	ExpiresAt          time.Time `json:"expires_at"`
	User               User      `json:"user"`
	MustChangePassword bool      `json:"must_change_password"`
	Page               string    `json:"page"`
}

// Banner mirrors the inline success/error/warning notices of the UI.
type Banner struct {
	Message string `json:"message"`
	Level   string `json:"level"`
	Raw     string `json:"raw,omitempty"`
}

type ScreeningResponse struct {
	ReportID               string    `json:"report_id,omitempty"`
	DocumentURL            string    `json:"document_url,omitempty"`
	DocumentName           string    `json:"document_name"`
	Evaluations            TableView `json:"candidate_evaluations"`
	Criteria               TableView `json:"criteria_observations"`
	AdditionalObservations string    `json:"additional_observations,omitempty"`
	FinalRecommendation    string    `json:"final_recommendation,omitempty"`
	Warnings               []string  `json:"warnings,omitempty"`
}

type ReportHit struct {
	Report Report  `json:"report"`
	Score  float32 `json:"score"`
}
