package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/core/port"
	"github.com/arklim/phone-auth-service/internal/infra/config"
	"github.com/arklim/phone-auth-service/internal/infra/security"
	"github.com/arklim/phone-auth-service/internal/repository"
)

// RegisterInput carries the registration form fields. Agreement is a
// tri-state: absent, declined, or accepted. Username and Password are
// required only when no account exists for the phone yet.
type RegisterInput struct {
	Phone    string
	Code     string
	Password string
	Username string
	Agreed   *bool
}

// RegisterResult reports the affected account. ExistingUser distinguishes a
// credential update on a known phone from a fresh registration.
type RegisterResult struct {
	UserID       string
	Token        string
	ExistingUser bool
}

// RegistrationService creates accounts and backfills credentials on accounts
// that were only ever logged in by code.
type RegistrationService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	validator *CodeValidatorService
	hasher    port.PasswordHasher
	tokens    port.TokenIssuer
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(cfg *config.AppConfig, users port.UserRepository, validator *CodeValidatorService, hasher port.PasswordHasher, tokens port.TokenIssuer, events port.EventPublisher, log *zap.Logger) *RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}

	return &RegistrationService{
		cfg:       cfg,
		users:     users,
		validator: validator,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Register creates an account or treats a known phone as an implicit login.
// Checks run in a fixed order: field presence, phone format, agreement, code
// consumption, then the existence branch. The code is consumed even when the
// phone already has an account, so it cannot be replayed on either path.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	bypass := s.cfg != nil && s.cfg.Auth.BypassCodeCheck

	if input.Phone == "" || input.Agreed == nil || (input.Code == "" && !bypass) {
		return nil, ErrMissingFields
	}
	if !domain.ValidPhone(input.Phone) {
		return nil, ErrInvalidPhone
	}
	if !*input.Agreed {
		return nil, ErrAgreementNotAccepted
	}

	if !bypass {
		record, err := s.validator.Validate(ctx, input.Phone, input.Code, domain.PurposeRegister)
		if err != nil {
			return nil, err
		}
		if err := s.validator.MarkUsed(ctx, record.ID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()

	existing, err := s.users.GetByPhone(ctx, input.Phone)
	switch {
	case err == nil:
		return s.implicitLogin(ctx, existing, input, now)
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, input, now)
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}
}

// implicitLogin handles register on a phone that already has an account. A
// supplied password is backfilled only when the account still carries the
// no-password sentinel; a supplied username only when the account has none.
func (s *RegistrationService) implicitLogin(ctx context.Context, user *domain.User, input RegisterInput, now time.Time) (*RegisterResult, error) {
	if input.Password != "" && !user.HasPassword() {
		hash, err := s.hashPassword(input.Phone, input.Username, input.Password)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		s.publishPasswordChanged(ctx, user.ID, now, "backfill")
	}
	if input.Username != "" && user.Username == "" {
		if err := s.users.UpdateUsername(ctx, user.ID, input.Username, now); err != nil {
			return nil, fmt.Errorf("update username: %w", err)
		}
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("register on existing account", logPhone(user.Phone), zap.String("user_id", user.ID))

	return &RegisterResult{UserID: user.ID, Token: token, ExistingUser: true}, nil
}

func (s *RegistrationService) create(ctx context.Context, input RegisterInput, now time.Time) (*RegisterResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	hash, err := s.hashPassword(input.Phone, input.Username, input.Password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Phone:        input.Phone,
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("account registered", logPhone(user.Phone), zap.String("user_id", user.ID))
	s.publishRegistered(ctx, user, now)

	return &RegisterResult{UserID: user.ID, Token: token}, nil
}

func (s *RegistrationService) hashPassword(phone, username, password string) (string, error) {
	if len(password) < s.minPasswordLength() {
		return "", ErrPasswordTooShort
	}

	if s.logger.Core().Enabled(zap.DebugLevel) {
		score := security.PasswordStrengthScore(password, phone, username)
		s.logger.Debug("password strength", logPhone(phone), zap.Int("score", score))
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Phone:        user.Phone,
		Username:     user.Username,
		RegisteredAt: at,
	}

	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *RegistrationService) publishPasswordChanged(ctx context.Context, userID string, at time.Time, reason string) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: at,
		Reason:    reason,
	}

	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *RegistrationService) minPasswordLength() int {
	if s.cfg != nil && s.cfg.Auth.MinPasswordLength > 0 {
		return s.cfg.Auth.MinPasswordLength
	}
	return 6
}
