package port

import "context"

// PasswordHasher hashes and verifies passwords with a salted one-way scheme.
// A fresh random salt is used per Hash call, so two hashes of the same
// password differ.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// TokenIssuer mints opaque bearer tokens bound to a user id. The token carries
// no verification contract; it exists so the demo client has something to hold.
type TokenIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
}
