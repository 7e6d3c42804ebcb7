package domain

import "time"

// Purpose enumerates the intended use of a verification code.
type Purpose string

const (
	PurposeLogin    Purpose = "login"
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
)

// Valid reports whether the purpose is one of the known values.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeLogin, PurposeRegister, PurposeReset:
		return true
	}
	return false
}

// VerificationCode mirrors the persisted representation in the
// verification_codes table. A code is consumed at most once; superseded codes
// for the same phone are hard-deleted when a new one is issued.
type VerificationCode struct {
	ID        string
	Phone     string
	Code      string
	Purpose   Purpose
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
