package port

import (
	"context"

	"github.com/arklim/phone-auth-service/internal/core/domain"
)

// EventPublisher emits domain events for downstream consumers (delivery
// workers, audit). Publish failures are logged by callers, never surfaced to
// the HTTP client.
type EventPublisher interface {
	PublishCodeIssued(ctx context.Context, event domain.CodeIssuedEvent) error
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
