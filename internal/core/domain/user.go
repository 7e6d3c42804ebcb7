package domain

import "time"

// SentinelNoPassword is the stored hash value meaning the account has no
// password set. Legacy SMS-only accounts carry it; password login against
// such an account reports "password not set" rather than "incorrect password".
const SentinelNoPassword = "legacy-no-password"

// User mirrors the persisted representation in the users table.
type User struct {
	ID           string
	Phone        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account has a usable password hash.
func (u User) HasPassword() bool {
	return u.PasswordHash != "" && u.PasswordHash != SentinelNoPassword
}
