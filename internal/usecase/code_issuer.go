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

const (
	defaultCodeTTL      = 60 * time.Second
	defaultResendWindow = 60 * time.Second
)

// CodeIssuerService generates, rate-limits, and supersedes verification codes.
type CodeIssuerService struct {
	cfg      *config.AppConfig
	codes    port.CodeRepository
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewCodeIssuerService constructs a CodeIssuerService.
func NewCodeIssuerService(cfg *config.AppConfig, codes port.CodeRepository, events port.EventPublisher, logger *zap.Logger) *CodeIssuerService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CodeIssuerService{
		cfg:      cfg,
		codes:    codes,
		events:   events,
		logger:   logger,
		now:      time.Now,
		generate: security.GenerateLoginCode,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *CodeIssuerService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithGenerator overrides the code generator, used in tests.
func (s *CodeIssuerService) WithGenerator(generate func() (string, error)) {
	if generate != nil {
		s.generate = generate
	}
}

// Issue generates a fresh code for the (phone, purpose) pair.
//
// The most recent code for the same pair gates reissue: inside the resend
// window the call fails with ErrRateLimited and mutates nothing. On success
// every stored code for the phone is deleted, across purposes, before the new
// record is inserted, so exactly one code per phone survives.
func (s *CodeIssuerService) Issue(ctx context.Context, phone string, purpose domain.Purpose) (*domain.VerificationCode, error) {
	if !domain.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	now := s.now().UTC()

	latest, err := s.codes.LatestByPhonePurpose(ctx, phone, purpose)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup latest code: %w", err)
	}
	if latest != nil && now.Sub(latest.CreatedAt) < s.resendWindow() {
		return nil, ErrRateLimited
	}

	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	record := domain.VerificationCode{
		ID:        uuid.NewString(),
		Phone:     phone,
		Code:      value,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.codeTTL()),
		Used:      false,
		CreatedAt: now,
	}

	if err := s.codes.DeleteByPhone(ctx, phone); err != nil {
		return nil, fmt.Errorf("delete superseded codes: %w", err)
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}

	// Demo stand-in for SMS delivery: the code is deliberately operator-visible.
	s.logger.Info("verification code issued",
		zap.String("phone", phone),
		zap.String("code", value),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", record.ExpiresAt),
	)

	s.publishCodeIssued(ctx, record)

	return &record, nil
}

func (s *CodeIssuerService) publishCodeIssued(ctx context.Context, record domain.VerificationCode) {
	if s.events == nil {
		return
	}

	event := domain.CodeIssuedEvent{
		EventID:   uuid.NewString(),
		Phone:     record.Phone,
		Purpose:   record.Purpose,
		Code:      record.Code,
		IssuedAt:  record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}

	if err := s.events.PublishCodeIssued(ctx, event); err != nil {
		s.logger.Warn("publish code issued event failed", logPhone(record.Phone), zap.Error(err))
	}
}

func (s *CodeIssuerService) codeTTL() time.Duration {
	if s.cfg != nil && s.cfg.Auth.CodeTTL > 0 {
		return s.cfg.Auth.CodeTTL
	}
	return defaultCodeTTL
}

func (s *CodeIssuerService) resendWindow() time.Duration {
	if s.cfg != nil && s.cfg.Auth.ResendWindow > 0 {
		return s.cfg.Auth.ResendWindow
	}
	return defaultResendWindow
}
