package domain

import (
	"errors"
	"time"
)

var (
	ErrMalformedCredential = errors.New("malformed credential")
	ErrMissingRole         = errors.New("credential carries no role")
	ErrCredentialExpired   = errors.New("credential expired")
	ErrUnknownRole         = errors.New("credential role is not configured")
)

// Credential is the decoded claim set of a session token.
type Credential struct {
	SubjectID string
	Role      Role
	ExpiresAt time.Time
	Email     string
	FirstName string
	LastName  string

	// Raw is the encoded token the claims were read from.
	Raw string
}

// Expired reports whether the credential has expired at now, allowing leeway.
func (c *Credential) Expired(now time.Time, leeway time.Duration) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt.Add(leeway))
}
