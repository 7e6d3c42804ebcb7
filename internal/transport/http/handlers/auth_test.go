package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/infra/config"
	"github.com/arklim/phone-auth-service/internal/usecase"
)

const handlerTestPhone = "13800138000"

func handlerTestConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{Name: "phone-auth", Env: "test"},
		Auth: config.AuthSettings{
			CodeTTL:           time.Minute,
			ResendWindow:      time.Minute,
			MinPasswordLength: 6,
		},
	}
}

func newAuthRouter(cfg *config.AppConfig, users *memUserRepo, codes *memCodeRepo) *gin.Engine {
	validator := usecase.NewCodeValidatorService(codes)
	issuer := usecase.NewCodeIssuerService(cfg, codes, noopPublisher{}, nil)
	auth := usecase.NewAuthService(cfg, users, validator, plainHasher{}, stubTokenIssuer{}, nil)
	registration := usecase.NewRegistrationService(cfg, users, validator, plainHasher{}, stubTokenIssuer{}, noopPublisher{}, nil)
	reset := usecase.NewPasswordResetService(cfg, users, validator, plainHasher{}, noopPublisher{}, nil)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewAuthHandler(cfg, issuer, auth, registration, reset).RegisterRoutes(engine.Group("/api/auth"))
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return body
}

func activeCode(phone, value string, purpose domain.Purpose) domain.VerificationCode {
	now := time.Now()
	return domain.VerificationCode{
		ID:        "code-1",
		Phone:     phone,
		Code:      value,
		Purpose:   purpose,
		ExpiresAt: now.Add(time.Minute),
		CreatedAt: now,
	}
}

func registeredUser() domain.User {
	now := time.Now()
	return domain.User{
		ID:           "user-1",
		Phone:        handlerTestPhone,
		Username:     "alice",
		PasswordHash: "hashed:secret-pw",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRequestCodeReturnsDebugCodeOutsideProduction(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/request-code", map[string]any{
		"phoneNumber": handlerTestPhone,
		"purpose":     "login",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Code generated." {
		t.Fatalf("unexpected message %q", body["message"])
	}
	debugCode, ok := body["debugCode"].(string)
	if !ok {
		t.Fatal("expected debugCode in the response")
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(debugCode) {
		t.Fatalf("expected a six digit debugCode, got %q", debugCode)
	}
}

func TestRequestCodeHidesDebugCodeInProduction(t *testing.T) {
	cfg := handlerTestConfig()
	cfg.App.Env = "production"
	engine := newAuthRouter(cfg, newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/request-code", map[string]any{
		"phoneNumber": handlerTestPhone,
		"purpose":     "login",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, present := body["debugCode"]; present {
		t.Fatal("debugCode must not appear in production responses")
	}
}

func TestRequestCodeRejectsInvalidPhone(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/request-code", map[string]any{
		"phoneNumber": "12345",
		"purpose":     "login",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid phone format." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRequestCodeRejectsUnknownPurpose(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/request-code", map[string]any{
		"phoneNumber": handlerTestPhone,
		"purpose":     "unlock",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid purpose." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRequestCodeRejectsMissingFields(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/request-code", map[string]any{
		"phoneNumber": handlerTestPhone,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid input or format." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRequestCodeRateLimitsResends(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())
	body := map[string]any{"phoneNumber": handlerTestPhone, "purpose": "login"}

	if rec := postJSON(t, engine, "/api/auth/request-code", body); rec.Code != http.StatusOK {
		t.Fatalf("first request: expected status 200, got %d", rec.Code)
	}

	rec := postJSON(t, engine, "/api/auth/request-code", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "Too many requests. Please wait before requesting a new code." {
		t.Fatalf("unexpected error %q", resp["error"])
	}
}

func TestLoginWithCodeSucceeds(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeLogin))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), codes)

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["userId"] != "user-1" {
		t.Fatalf("unexpected userId %q", body["userId"])
	}
	if body["token"] != "jwt-token-user-1-1700000000000" {
		t.Fatalf("unexpected token %q", body["token"])
	}
}

func TestLoginWithCodeUnknownPhone(t *testing.T) {
	codes := newMemCodeRepo(activeCode("13911112222", "654321", domain.PurposeLogin))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"phoneNumber":      "13911112222",
		"verificationCode": "654321",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Phone not registered." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginWithCodeRejectsWrongCode(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeLogin))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), codes)

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "111111",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Verification code invalid." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginWithPasswordByUsername(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"accountOrPhone": "alice",
		"password":       "secret-pw",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["userId"] != "user-1" {
		t.Fatalf("unexpected userId %q", body["userId"])
	}
}

func TestLoginWithPasswordUnknownAccount(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"accountOrPhone": "nobody",
		"password":       "secret-pw",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Account not found." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginWithPasswordAgainstLegacyAccount(t *testing.T) {
	user := registeredUser()
	user.PasswordHash = domain.SentinelNoPassword
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(user), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"accountOrPhone": handlerTestPhone,
		"password":       "secret-pw",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Password not set." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginWithPasswordMismatch(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{
		"accountOrPhone": "alice",
		"password":       "wrong-pw",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Incorrect password." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginWithoutCredentials(t *testing.T) {
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), newMemCodeRepo())

	rec := postJSON(t, engine, "/api/auth/login", map[string]any{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid input or format." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRegisterCreatesAccount(t *testing.T) {
	users := newMemUserRepo()
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), users, codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"username":         "bob",
		"password":         "secret-pw",
		"agreeAgreement":   true,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["userId"] == "" || body["token"] == "" {
		t.Fatalf("expected userId and token, got %v", body)
	}
	if _, present := body["existingUser"]; present {
		t.Fatal("existingUser must be omitted for new accounts")
	}

	created, err := users.GetByPhone(context.Background(), handlerTestPhone)
	if err != nil {
		t.Fatalf("expected account to be created: %v", err)
	}
	if created.Username != "bob" {
		t.Fatalf("unexpected username %q", created.Username)
	}
}

func TestRegisterExistingPhoneLogsIn(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(registeredUser()), codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"agreeAgreement":   true,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["existingUser"] != true {
		t.Fatalf("expected existingUser true, got %v", body["existingUser"])
	}
	if body["userId"] != "user-1" {
		t.Fatalf("unexpected userId %q", body["userId"])
	}
}

func TestRegisterDeclinedAgreement(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"username":         "bob",
		"password":         "secret-pw",
		"agreeAgreement":   false,
	})

	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected status 412, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Agreement not accepted." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRegisterMissingAgreement(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"username":         "bob",
		"password":         "secret-pw",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid input or format." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRegisterRejectsWrongCode(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "111111",
		"username":         "bob",
		"password":         "secret-pw",
		"agreeAgreement":   true,
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Verification code invalid." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeRegister))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/register", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"username":         "bob",
		"password":         "tiny",
		"agreeAgreement":   true,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid input or format." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestResetPasswordSucceeds(t *testing.T) {
	users := newMemUserRepo(registeredUser())
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeReset))
	engine := newAuthRouter(handlerTestConfig(), users, codes)

	rec := postJSON(t, engine, "/api/auth/reset-password", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"newPassword":      "fresh-pw",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["message"] != "Password updated." {
		t.Fatalf("unexpected message %q", body["message"])
	}

	updated, err := users.GetByPhone(context.Background(), handlerTestPhone)
	if err != nil {
		t.Fatalf("lookup after reset: %v", err)
	}
	if updated.PasswordHash != "hashed:fresh-pw" {
		t.Fatalf("password hash not updated, got %q", updated.PasswordHash)
	}
}

func TestResetPasswordUnknownPhone(t *testing.T) {
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeReset))
	engine := newAuthRouter(handlerTestConfig(), newMemUserRepo(), codes)

	rec := postJSON(t, engine, "/api/auth/reset-password", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "654321",
		"newPassword":      "fresh-pw",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Phone not registered." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestResetPasswordRejectsWrongCode(t *testing.T) {
	users := newMemUserRepo(registeredUser())
	codes := newMemCodeRepo(activeCode(handlerTestPhone, "654321", domain.PurposeReset))
	engine := newAuthRouter(handlerTestConfig(), users, codes)

	rec := postJSON(t, engine, "/api/auth/reset-password", map[string]any{
		"phoneNumber":      handlerTestPhone,
		"verificationCode": "999999",
		"newPassword":      "fresh-pw",
	})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Verification code invalid." {
		t.Fatalf("unexpected error %q", body["error"])
	}
}
