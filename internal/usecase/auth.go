package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/core/port"
	"github.com/arklim/phone-auth-service/internal/infra/config"
	"github.com/arklim/phone-auth-service/internal/infra/logger"
	"github.com/arklim/phone-auth-service/internal/repository"
)

// CodeLoginInput is the code branch of the login flow.
type CodeLoginInput struct {
	Phone string
	Code  string
}

// PasswordLoginInput is the password branch of the login flow. Account may be
// a phone number or a username; phone-shaped values resolve by phone.
type PasswordLoginInput struct {
	Account  string
	Password string
}

// LoginResult carries the authenticated user id and its bearer token.
type LoginResult struct {
	UserID string
	Token  string
}

// AuthService implements the login flows over the code validator and the
// credential verifier.
type AuthService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	validator *CodeValidatorService
	hasher    port.PasswordHasher
	tokens    port.TokenIssuer
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg *config.AppConfig, users port.UserRepository, validator *CodeValidatorService, hasher port.PasswordHasher, tokens port.TokenIssuer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		cfg:       cfg,
		users:     users,
		validator: validator,
		hasher:    hasher,
		tokens:    tokens,
		logger:    log,
	}
}

// LoginWithCode authenticates an existing account with a login-purpose code.
// The account must exist before the code is checked; an unknown phone fails
// with ErrNotRegistered without touching the code.
func (s *AuthService) LoginWithCode(ctx context.Context, input CodeLoginInput) (*LoginResult, error) {
	if !domain.ValidPhone(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if input.Code == "" && !s.bypassCodeCheck() {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetByPhone(ctx, input.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if s.bypassCodeCheck() {
		s.logger.Warn("code check bypassed", logPhone(input.Phone))
	} else {
		record, err := s.validator.Validate(ctx, input.Phone, input.Code, domain.PurposeLogin)
		if err != nil {
			return nil, err
		}
		if err := s.validator.MarkUsed(ctx, record.ID); err != nil {
			return nil, err
		}
	}

	return s.issueToken(ctx, user.ID)
}

// LoginWithPassword authenticates by account (phone or username) and password.
// An account carrying the no-password sentinel fails with ErrPasswordNotSet,
// distinct from ErrIncorrectPassword.
func (s *AuthService) LoginWithPassword(ctx context.Context, input PasswordLoginInput) (*LoginResult, error) {
	if input.Account == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	var (
		user *domain.User
		err  error
	)
	if domain.ValidPhone(input.Account) {
		user, err = s.users.GetByPhone(ctx, input.Account)
	} else {
		user, err = s.users.GetByUsername(ctx, input.Account)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordNotSet
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}

	return s.issueToken(ctx, user.ID)
}

func (s *AuthService) issueToken(ctx context.Context, userID string) (*LoginResult, error) {
	token, err := s.tokens.Issue(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("login succeeded", zap.String("user_id", userID))

	return &LoginResult{UserID: userID, Token: token}, nil
}

// bypassCodeCheck reads the demo toggle on every invocation so tests can flip
// it between cases.
func (s *AuthService) bypassCodeCheck() bool {
	return s.cfg != nil && s.cfg.Auth.BypassCodeCheck
}

// logPhone keeps phone numbers masked in routine logs.
func logPhone(phone string) zap.Field {
	return zap.String("phone", logger.MaskPhone(phone))
}
