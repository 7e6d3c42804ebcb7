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

// ResetPasswordInput carries the reset form fields.
type ResetPasswordInput struct {
	Phone       string
	Code        string
	NewPassword string
}

// PasswordResetService replaces a known account's password after a
// reset-purpose code check.
type PasswordResetService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	validator *CodeValidatorService
	hasher    port.PasswordHasher
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(cfg *config.AppConfig, users port.UserRepository, validator *CodeValidatorService, hasher port.PasswordHasher, events port.EventPublisher, log *zap.Logger) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		cfg:       cfg,
		users:     users,
		validator: validator,
		hasher:    hasher,
		events:    events,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Reset validates the phone, the new password's length, the account's
// existence, and the code, in that order, then stores the new hash. An
// unknown phone is reported before any code is consumed.
func (s *PasswordResetService) Reset(ctx context.Context, input ResetPasswordInput) error {
	bypass := s.cfg != nil && s.cfg.Auth.BypassCodeCheck

	if input.Phone == "" || input.NewPassword == "" || (input.Code == "" && !bypass) {
		return ErrMissingFields
	}
	if !domain.ValidPhone(input.Phone) {
		return ErrInvalidPhone
	}
	if len(input.NewPassword) < s.minPasswordLength() {
		return ErrPasswordTooShort
	}

	user, err := s.users.GetByPhone(ctx, input.Phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotRegistered
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if !bypass {
		record, err := s.validator.Validate(ctx, input.Phone, input.Code, domain.PurposeReset)
		if err != nil {
			return err
		}
		if err := s.validator.MarkUsed(ctx, record.ID); err != nil {
			return err
		}
	}

	if s.logger.Core().Enabled(zap.DebugLevel) {
		score := security.PasswordStrengthScore(input.NewPassword, input.Phone)
		s.logger.Debug("reset password strength", logPhone(input.Phone), zap.Int("score", score))
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password reset", logPhone(user.Phone), zap.String("user_id", user.ID))
	s.publishPasswordChanged(ctx, user.ID, now)

	return nil
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID string, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: at,
		Reason:    "reset",
	}

	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *PasswordResetService) minPasswordLength() int {
	if s.cfg != nil && s.cfg.Auth.MinPasswordLength > 0 {
		return s.cfg.Auth.MinPasswordLength
	}
	return 6
}
