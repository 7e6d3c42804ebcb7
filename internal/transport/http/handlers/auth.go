package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/infra/config"
	"github.com/arklim/phone-auth-service/internal/usecase"
)

const (
	msgInvalidInput  = "Invalid input or format."
	msgInternalError = "Internal server error."
)

// AuthHandler exposes the phone authentication endpoints.
type AuthHandler struct {
	cfg          *config.AppConfig
	issuer       *usecase.CodeIssuerService
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	reset        *usecase.PasswordResetService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(cfg *config.AppConfig, issuer *usecase.CodeIssuerService, auth *usecase.AuthService, registration *usecase.RegistrationService, reset *usecase.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		cfg:          cfg,
		issuer:       issuer,
		auth:         auth,
		registration: registration,
		reset:        reset,
	}
}

// RegisterRoutes binds the authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/request-code", h.requestCode)
	r.POST("/login", h.login)
	r.POST("/register", h.register)
	r.POST("/reset-password", h.resetPassword)
}

func (h *AuthHandler) requestCode(c *gin.Context) {
	var req RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	if req.PhoneNumber == "" || req.Purpose == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	record, err := h.issuer.Issue(c.Request.Context(), req.PhoneNumber, domain.Purpose(req.Purpose))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidPhone, Status: http.StatusBadRequest, Message: "Invalid phone format."},
			{Err: usecase.ErrInvalidPurpose, Status: http.StatusBadRequest, Message: "Invalid purpose."},
			{Err: usecase.ErrRateLimited, Status: http.StatusTooManyRequests, Message: "Too many requests. Please wait before requesting a new code."},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	resp := RequestCodeResponse{Message: "Code generated."}
	if h.exposeDebugCode() {
		resp.DebugCode = record.Code
	}

	c.JSON(http.StatusOK, resp)
}

// login selects the branch once, from which fields the request carries:
// phoneNumber drives code login, accountOrPhone with password drives
// password login.
func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	var (
		result *usecase.LoginResult
		err    error
	)
	switch {
	case req.AccountOrPhone != "" && req.Password != "":
		result, err = h.auth.LoginWithPassword(c.Request.Context(), usecase.PasswordLoginInput{
			Account:  req.AccountOrPhone,
			Password: req.Password,
		})
	case req.PhoneNumber != "":
		result, err = h.auth.LoginWithCode(c.Request.Context(), usecase.CodeLoginInput{
			Phone: req.PhoneNumber,
			Code:  req.VerificationCode,
		})
	default:
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrInvalidPhone, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrNotRegistered, Status: http.StatusNotFound, Message: "Phone not registered."},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "Account not found."},
			{Err: usecase.ErrInvalidCode, Status: http.StatusUnauthorized, Message: "Verification code invalid."},
			{Err: usecase.ErrPasswordNotSet, Status: http.StatusUnauthorized, Message: "Password not set."},
			{Err: usecase.ErrIncorrectPassword, Status: http.StatusUnauthorized, Message: "Incorrect password."},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{UserID: result.UserID, Token: result.Token})
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	result, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Phone:    req.PhoneNumber,
		Code:     req.VerificationCode,
		Password: req.Password,
		Username: req.Username,
		Agreed:   req.AgreeAgreement,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrInvalidPhone, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrAgreementNotAccepted, Status: http.StatusPreconditionFailed, Message: "Agreement not accepted."},
			{Err: usecase.ErrInvalidCode, Status: http.StatusUnauthorized, Message: "Verification code invalid."},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	status := http.StatusCreated
	if result.ExistingUser {
		status = http.StatusOK
	}

	c.JSON(status, RegisterResponse{
		UserID:       result.UserID,
		Token:        result.Token,
		ExistingUser: result.ExistingUser,
	})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidInput))
		return
	}

	err := h.reset.Reset(c.Request.Context(), usecase.ResetPasswordInput{
		Phone:       req.PhoneNumber,
		Code:        req.VerificationCode,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrInvalidPhone, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: msgInvalidInput},
			{Err: usecase.ErrNotRegistered, Status: http.StatusNotFound, Message: "Phone not registered."},
			{Err: usecase.ErrInvalidCode, Status: http.StatusUnauthorized, Message: "Verification code invalid."},
		}, http.StatusInternalServerError, msgInternalError)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated."})
}

// exposeDebugCode reports whether the generated code may appear in responses.
// Outside production the demo has no SMS channel, so the code rides along.
func (h *AuthHandler) exposeDebugCode() bool {
	if h.cfg == nil {
		return false
	}
	return h.cfg.Auth.ExposeDebugCode || h.cfg.Auth.BypassCodeCheck || !h.cfg.App.IsProduction()
}
