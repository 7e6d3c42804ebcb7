package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/core/port"
	"github.com/arklim/phone-auth-service/internal/repository"
)

// CodeValidatorService checks submitted codes against stored state.
//
// Validate and MarkUsed are deliberately separate so flows can interleave
// other checks between matching a code and committing its consumption.
type CodeValidatorService struct {
	codes port.CodeRepository
	now   func() time.Time
}

// NewCodeValidatorService constructs a CodeValidatorService.
func NewCodeValidatorService(codes port.CodeRepository) *CodeValidatorService {
	return &CodeValidatorService{
		codes: codes,
		now:   time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *CodeValidatorService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Validate matches an unused, unexpired code. Expired, consumed, and
// mismatched codes all fail with ErrInvalidCode; no distinction is surfaced.
// Validation does not mutate state.
func (s *CodeValidatorService) Validate(ctx context.Context, phone, code string, purpose domain.Purpose) (*domain.VerificationCode, error) {
	if phone == "" || code == "" || !purpose.Valid() {
		return nil, ErrInvalidCode
	}

	record, err := s.codes.FindValid(ctx, phone, code, purpose, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("lookup code: %w", err)
	}

	return record, nil
}

// MarkUsed consumes the matched code. Irreversible; later Validate calls for
// the same record fail.
func (s *CodeValidatorService) MarkUsed(ctx context.Context, id string) error {
	if err := s.codes.MarkUsed(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("mark code used: %w", err)
	}
	return nil
}
