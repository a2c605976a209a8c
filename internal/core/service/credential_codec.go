package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// subjectClaims are tried in order when the token has no "sub".
var subjectClaims = []string{"id", "userId"}

// CredentialCodec decodes session tokens locally. It reads the claims without
// verifying the signature: enforcement happens at the gate, and the profile
// API verifies tokens on its own.
type CredentialCodec struct {
	parser *jwt.Parser
	leeway time.Duration
	now    func() time.Time
}

func NewCredentialCodec(leeway time.Duration) *CredentialCodec {
	if leeway < 0 {
		leeway = 0
	}
	return &CredentialCodec{
		parser: jwt.NewParser(),
		leeway: leeway,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec reading time from now.
func (c *CredentialCodec) WithClock(now func() time.Time) *CredentialCodec {
	clone := *c
	clone.now = now
	return &clone
}

// Decode extracts the credential claims from raw. A missing or empty role
// yields domain.ErrMissingRole; structural problems yield
// domain.ErrMalformedCredential; a past expiry yields domain.ErrCredentialExpired.
func (c *CredentialCodec) Decode(raw string) (*domain.Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrMalformedCredential
	}

	claims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCredential, err)
	}

	subject, err := subjectOf(claims)
	if err != nil {
		return nil, err
	}

	role, ok := stringClaim(claims, "role")
	if !ok || role == "" {
		return nil, domain.ErrMissingRole
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", domain.ErrMalformedCredential, err)
	}
	if exp == nil {
		return nil, fmt.Errorf("%w: exp claim missing", domain.ErrMalformedCredential)
	}

	cred := &domain.Credential{
		SubjectID: subject,
		Role:      domain.Role(strings.ToUpper(role)),
		ExpiresAt: exp.Time,
		Raw:       raw,
	}
	cred.Email, _ = stringClaim(claims, "email")
	cred.FirstName, _ = stringClaim(claims, "firstName")
	cred.LastName, _ = stringClaim(claims, "lastName")

	if cred.Expired(c.now(), c.leeway) {
		return nil, domain.ErrCredentialExpired
	}
	return cred, nil
}

func subjectOf(claims jwt.MapClaims) (string, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: sub: %v", domain.ErrMalformedCredential, err)
	}
	if sub != "" {
		return sub, nil
	}
	for _, key := range subjectClaims {
		if v, ok := stringClaim(claims, key); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: subject claim missing", domain.ErrMalformedCredential)
}

func stringClaim(claims jwt.MapClaims, key string) (string, bool) {
	v, ok := claims[key].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
