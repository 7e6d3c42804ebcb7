package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/phone-auth-service/internal/repository"
)

const defaultTokenPrefix = "auth:token"

// TokenRepository records issued bearer tokens in Redis with a TTL. The token
// itself remains the credential; this record only supports operator
// inspection and expiry bookkeeping.
type TokenRepository struct {
	client *red.Client
	prefix string
}

// NewTokenRepository constructs a token repository with the provided Redis
// client and key prefix.
func NewTokenRepository(client *red.Client, keyPrefix string) *TokenRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTokenPrefix
	}

	return &TokenRepository{
		client: client,
		prefix: prefix,
	}
}

// Save stores the token to user id mapping with the supplied TTL.
func (r *TokenRepository) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	userID = strings.TrimSpace(userID)

	switch {
	case token == "":
		return errors.New("token is required")
	case userID == "":
		return errors.New("user id is required")
	case ttl <= 0:
		return errors.New("ttl must be positive")
	}

	if err := r.client.Set(ctx, r.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis save token: %w", err)
	}

	return nil
}

// Resolve returns the user id bound to the token, or repository.ErrNotFound
// when the token is unknown or expired.
func (r *TokenRepository) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("token is required")
	}

	userID, err := r.client.Get(ctx, r.key(token)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis resolve token: %w", err)
	}

	return userID, nil
}

func (r *TokenRepository) key(token string) string {
	return fmt.Sprintf("%s:%s", r.prefix, token)
}
