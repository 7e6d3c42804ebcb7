package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/core/port"
	"github.com/arklim/phone-auth-service/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishCodeIssued logs auth.code.issued events.
func (p *StubPublisher) PublishCodeIssued(_ context.Context, event domain.CodeIssuedEvent) error {
	payload := map[string]any{
		"phone":      logger.MaskPhone(event.Phone),
		"purpose":    string(event.Purpose),
		"issued_at":  event.IssuedAt,
		"expires_at": event.ExpiresAt,
	}
	p.logEvent("auth.code.issued", event.IssuedAt, payload)
	return nil
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"phone":         logger.MaskPhone(event.Phone),
		"username":      event.Username,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("auth.user.registered", event.RegisteredAt, payload)
	return nil
}

// PublishPasswordChanged logs auth.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"changed_at": event.ChangedAt,
		"reason":     event.Reason,
	}
	p.logEvent("auth.user.password.changed", event.ChangedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
