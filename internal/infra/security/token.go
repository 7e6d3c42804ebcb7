package security

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/phone-auth-service/internal/core/port"
)

// GenerateLoginCode returns a uniformly random 6-digit verification code in
// the range 100000-999999.
func GenerateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// TokenRecorder persists issued tokens for later inspection. Issuance does
// not depend on the record being readable; the token itself is the credential
// the demo client holds.
type TokenRecorder interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
}

// OpaqueTokenIssuer implements port.TokenIssuer with the demo token shape
// "jwt-token-<userID>-<unixMillis>". Despite the prefix it is not a JWT and
// carries no verification contract.
type OpaqueTokenIssuer struct {
	recorder TokenRecorder
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewOpaqueTokenIssuer constructs the issuer. The recorder may be nil, in
// which case tokens are minted without bookkeeping.
func NewOpaqueTokenIssuer(recorder TokenRecorder, ttl time.Duration, logger *zap.Logger) *OpaqueTokenIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &OpaqueTokenIssuer{
		recorder: recorder,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (i *OpaqueTokenIssuer) WithClock(clock func() time.Time) {
	if clock != nil {
		i.now = clock
	}
}

// Issue mints a token bound to the user id.
func (i *OpaqueTokenIssuer) Issue(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	token := fmt.Sprintf("jwt-token-%s-%d", userID, i.now().UTC().UnixMilli())

	if i.recorder != nil {
		if err := i.recorder.Save(ctx, token, userID, i.ttl); err != nil {
			i.logger.Warn("record issued token failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return token, nil
}

var _ port.TokenIssuer = (*OpaqueTokenIssuer)(nil)
