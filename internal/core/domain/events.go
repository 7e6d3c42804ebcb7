package domain

import "time"

// CodeIssuedEvent is published whenever the issuer generates a verification
// code. In this demo the event stream stands in for SMS delivery.
type CodeIssuedEvent struct {
	EventID   string
	Phone     string
	Purpose   Purpose
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// UserRegisteredEvent is published when a brand-new account is created.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Phone        string
	Username     string
	RegisteredAt time.Time
}

// PasswordChangedEvent is published when a password is set, backfilled, or reset.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	ChangedAt time.Time
	Reason    string
}