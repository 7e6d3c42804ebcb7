package port

import (
	"context"
	"time"

	"github.com/arklim/phone-auth-service/internal/core/domain"
)

// CodeRepository exposes persistence behavior for verification codes.
type CodeRepository interface {
	Create(ctx context.Context, code domain.VerificationCode) error
	// LatestByPhonePurpose returns the most recently created code for the
	// (phone, purpose) pair regardless of its used/expired state.
	LatestByPhonePurpose(ctx context.Context, phone string, purpose domain.Purpose) (*domain.VerificationCode, error)
	// FindValid matches an unused, unexpired code by phone, code value, and
	// purpose against the supplied reference time.
	FindValid(ctx context.Context, phone, code string, purpose domain.Purpose, now time.Time) (*domain.VerificationCode, error)
	MarkUsed(ctx context.Context, id string) error
	// DeleteByPhone removes every code stored for the phone, across purposes.
	DeleteByPhone(ctx context.Context, phone string) error
}
