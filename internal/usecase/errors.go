package usecase

import "errors"

var (
	// ErrInvalidPhone indicates the phone number does not match the mobile format.
	ErrInvalidPhone = errors.New("invalid phone format")
	// ErrInvalidPurpose indicates an unknown verification code purpose.
	ErrInvalidPurpose = errors.New("invalid purpose")
	// ErrRateLimited indicates a code was requested again inside the resend window.
	ErrRateLimited = errors.New("code requested too soon")
	// ErrInvalidCode indicates the submitted code is wrong, expired, or consumed.
	// The three cases are deliberately indistinguishable to the caller.
	ErrInvalidCode = errors.New("verification code invalid")
	// ErrNotRegistered indicates no account exists for the phone number.
	ErrNotRegistered = errors.New("phone not registered")
	// ErrAccountNotFound indicates password login could not resolve the account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrPasswordNotSet indicates the account has no password to check against.
	ErrPasswordNotSet = errors.New("password not set")
	// ErrIncorrectPassword indicates the password does not match the stored hash.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrAgreementNotAccepted indicates the user declined the service agreement.
	ErrAgreementNotAccepted = errors.New("agreement not accepted")
	// ErrPasswordTooShort indicates the supplied password is below the minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrMissingFields indicates a required field for the flow is absent.
	ErrMissingFields = errors.New("missing required fields")
)
