package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response with the request id from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Get("request_id")
	requestIDStr, _ := requestID.(string)

	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RequestCodeRequest defines the payload for the request-code endpoint.
type RequestCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Purpose     string `json:"purpose"`
}

// RequestCodeResponse confirms code issuance. DebugCode carries the generated
// code outside production so the demo works without SMS delivery.
type RequestCodeResponse struct {
	Message   string `json:"message"`
	DebugCode string `json:"debugCode,omitempty"`
}

// LoginRequest defines the payload for the login endpoint. The filled fields
// select the branch: phoneNumber+verificationCode for code login,
// accountOrPhone+password for password login.
type LoginRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	VerificationCode string `json:"verificationCode"`
	AccountOrPhone   string `json:"accountOrPhone"`
	Password         string `json:"password"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// RegisterRequest defines the registration payload. Username and Password are
// required only for brand-new accounts; AgreeAgreement distinguishes absent
// from declined.
type RegisterRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	VerificationCode string `json:"verificationCode"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	AgreeAgreement   *bool  `json:"agreeAgreement"`
}

// RegisterResponse contains registration results.
type RegisterResponse struct {
	UserID       string `json:"userId"`
	Token        string `json:"token"`
	ExistingUser bool   `json:"existingUser,omitempty"`
}

// ResetPasswordRequest defines the reset-password payload.
type ResetPasswordRequest struct {
	PhoneNumber      string `json:"phoneNumber"`
	VerificationCode string `json:"verificationCode"`
	NewPassword      string `json:"newPassword"`
}

// HealthResponse reports liveness state.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness results.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
