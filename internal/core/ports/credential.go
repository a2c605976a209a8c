package ports

import "github.com/rentalhub/marketplace-gate/internal/core/domain"

// CredentialStore holds the session token shared by the gate and the
// session materializer. Writes replace the whole value.
type CredentialStore interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

// CredentialDecoder extracts claims from a raw token without verifying it.
type CredentialDecoder interface {
	Decode(raw string) (*domain.Credential, error)
}
