package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/repository"
)

type memUserRepo struct {
	users map[string]*domain.User
}

func newMemUserRepo(users ...domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) error {
	r.users[user.ID] = &user
	return nil
}

func (r *memUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username && username != "" {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = changedAt
	return nil
}

func (r *memUserRepo) UpdateUsername(_ context.Context, id, username string, changedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Username = username
	u.UpdatedAt = changedAt
	return nil
}

type memCodeRepo struct {
	codes []domain.VerificationCode
}

func newMemCodeRepo(codes ...domain.VerificationCode) *memCodeRepo {
	return &memCodeRepo{codes: codes}
}

func (r *memCodeRepo) Create(_ context.Context, code domain.VerificationCode) error {
	r.codes = append(r.codes, code)
	return nil
}

func (r *memCodeRepo) LatestByPhonePurpose(_ context.Context, phone string, purpose domain.Purpose) (*domain.VerificationCode, error) {
	var latest *domain.VerificationCode
	for i := range r.codes {
		c := r.codes[i]
		if c.Phone != phone || c.Purpose != purpose {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = &c
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *memCodeRepo) FindValid(_ context.Context, phone, code string, purpose domain.Purpose, now time.Time) (*domain.VerificationCode, error) {
	for i := range r.codes {
		c := r.codes[i]
		if c.Phone == phone && c.Code == code && c.Purpose == purpose && !c.Used && c.ExpiresAt.After(now) {
			copied := c
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCodeRepo) MarkUsed(_ context.Context, id string) error {
	for i := range r.codes {
		if r.codes[i].ID == id {
			r.codes[i].Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memCodeRepo) DeleteByPhone(_ context.Context, phone string) error {
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Phone != phone {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

type noopPublisher struct{}

func (noopPublisher) PublishCodeIssued(context.Context, domain.CodeIssuedEvent) error { return nil }

func (noopPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	return nil
}

func (noopPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type stubTokenIssuer struct{}

func (stubTokenIssuer) Issue(_ context.Context, userID string) (string, error) {
	return fmt.Sprintf("jwt-token-%s-1700000000000", userID), nil
}
