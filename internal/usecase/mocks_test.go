package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository keyed by user id.
type fakeUserRepo struct {
	users map[string]*domain.User

	createErr         error
	updatePasswordErr error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for i := range users {
		u := users[i]
		repo.users[u.ID] = &u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.users[user.ID] = &user
	return nil
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username && username != "" {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	if r.updatePasswordErr != nil {
		return r.updatePasswordErr
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = changedAt
	return nil
}

func (r *fakeUserRepo) UpdateUsername(_ context.Context, id, username string, changedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Username = username
	u.UpdatedAt = changedAt
	return nil
}

// fakeCodeRepo is an in-memory CodeRepository.
type fakeCodeRepo struct {
	codes []domain.VerificationCode

	deleteCalls []string
	createErr   error
}

func newFakeCodeRepo(codes ...domain.VerificationCode) *fakeCodeRepo {
	return &fakeCodeRepo{codes: codes}
}

func (r *fakeCodeRepo) Create(_ context.Context, code domain.VerificationCode) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.codes = append(r.codes, code)
	return nil
}

func (r *fakeCodeRepo) LatestByPhonePurpose(_ context.Context, phone string, purpose domain.Purpose) (*domain.VerificationCode, error) {
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

func (r *fakeCodeRepo) FindValid(_ context.Context, phone, code string, purpose domain.Purpose, now time.Time) (*domain.VerificationCode, error) {
	for i := range r.codes {
		c := r.codes[i]
		if c.Phone == phone && c.Code == code && c.Purpose == purpose && !c.Used && c.ExpiresAt.After(now) {
			copied := c
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCodeRepo) MarkUsed(_ context.Context, id string) error {
	for i := range r.codes {
		if r.codes[i].ID == id {
			r.codes[i].Used = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCodeRepo) DeleteByPhone(_ context.Context, phone string) error {
	r.deleteCalls = append(r.deleteCalls, phone)
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.Phone != phone {
			kept = append(kept, c)
		}
	}
	r.codes = kept
	return nil
}

func (r *fakeCodeRepo) byPhone(phone string) []domain.VerificationCode {
	var out []domain.VerificationCode
	for _, c := range r.codes {
		if c.Phone == phone {
			out = append(out, c)
		}
	}
	return out
}

// fakeHasher encodes passwords reversibly so assertions stay readable.
type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

// fakeTokenIssuer mints predictable tokens.
type fakeTokenIssuer struct {
	issueErr error
	issued   []string
}

func (t *fakeTokenIssuer) Issue(_ context.Context, userID string) (string, error) {
	if t.issueErr != nil {
		return "", t.issueErr
	}
	t.issued = append(t.issued, userID)
	return fmt.Sprintf("jwt-token-%s-1700000000000", userID), nil
}

// fakeEventPublisher records published events by kind.
type fakeEventPublisher struct {
	codeIssued      []domain.CodeIssuedEvent
	registered      []domain.UserRegisteredEvent
	passwordChanged []domain.PasswordChangedEvent
}

func (p *fakeEventPublisher) PublishCodeIssued(_ context.Context, event domain.CodeIssuedEvent) error {
	p.codeIssued = append(p.codeIssued, event)
	return nil
}

func (p *fakeEventPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakeEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.passwordChanged = append(p.passwordChanged, event)
	return nil
}

func boolPtr(v bool) *bool { return &v }

func tokenMatches(token, userID string) bool {
	return strings.HasPrefix(token, "jwt-token-"+userID+"-")
}
