package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

func newTestCodec() *CredentialCodec {
	return NewCredentialCodec(0).WithClock(fixedClock)
}

func TestCredentialCodec_Decode_Success(t *testing.T) {
	codec := newTestCodec()

	cred, err := codec.Decode(tokenFor(t, "u-1", domain.RoleOwner))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if cred.SubjectID != "u-1" || cred.Role != domain.RoleOwner {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if cred.Email != "u-1@example.com" || cred.FirstName != "Ada" || cred.LastName != "Lovelace" {
		t.Fatalf("optional claims not decoded: %+v", cred)
	}
	if !cred.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", cred.ExpiresAt)
	}
}

func TestCredentialCodec_Decode_IgnoresSignature(t *testing.T) {
	codec := newTestCodec()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u-2",
		"role": "CUSTOMER",
		"exp":  testNow.Add(time.Minute).Unix(),
	}).SignedString([]byte("some-other-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := codec.Decode(signed); err != nil {
		t.Fatalf("expected unverified decode to succeed, got %v", err)
	}
}

func TestCredentialCodec_Decode_NormalizesRoleCase(t *testing.T) {
	codec := newTestCodec()
	token := signToken(t, jwt.MapClaims{"sub": "u-3", "role": "admin", "exp": testNow.Add(time.Hour).Unix()})

	cred, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if cred.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", cred.Role)
	}
}

func TestCredentialCodec_Decode_SubjectFallback(t *testing.T) {
	codec := newTestCodec()
	token := signToken(t, jwt.MapClaims{"userId": "u-4", "role": "OWNER", "exp": testNow.Add(time.Hour).Unix()})

	cred, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if cred.SubjectID != "u-4" {
		t.Fatalf("expected subject from userId, got %q", cred.SubjectID)
	}
}

func TestCredentialCodec_Decode_Failures(t *testing.T) {
	codec := newTestCodec()
	future := testNow.Add(time.Hour).Unix()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", domain.ErrMalformedCredential},
		{"garbage", "not-a-token", domain.ErrMalformedCredential},
		{"three bogus segments", "a.b.c", domain.ErrMalformedCredential},
		{"missing role", signToken(t, jwt.MapClaims{"sub": "u", "exp": future}), domain.ErrMissingRole},
		{"empty role", signToken(t, jwt.MapClaims{"sub": "u", "role": "  ", "exp": future}), domain.ErrMissingRole},
		{"non-string role", signToken(t, jwt.MapClaims{"sub": "u", "role": 7, "exp": future}), domain.ErrMissingRole},
		{"missing subject", signToken(t, jwt.MapClaims{"role": "OWNER", "exp": future}), domain.ErrMalformedCredential},
		{"missing exp", signToken(t, jwt.MapClaims{"sub": "u", "role": "OWNER"}), domain.ErrMalformedCredential},
		{"bad exp type", signToken(t, jwt.MapClaims{"sub": "u", "role": "OWNER", "exp": "tomorrow"}), domain.ErrMalformedCredential},
		{"expired", signToken(t, jwt.MapClaims{"sub": "u", "role": "OWNER", "exp": testNow.Add(-time.Minute).Unix()}), domain.ErrCredentialExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := codec.Decode(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if cred != nil {
				t.Fatalf("expected no credential, got %+v", cred)
			}
		})
	}
}

func TestCredentialCodec_Decode_Leeway(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u", "role": "OWNER", "exp": testNow.Add(-30 * time.Second).Unix()})

	if _, err := NewCredentialCodec(time.Minute).WithClock(fixedClock).Decode(token); err != nil {
		t.Fatalf("expected token within leeway to decode, got %v", err)
	}
	if _, err := newTestCodec().Decode(token); !errors.Is(err, domain.ErrCredentialExpired) {
		t.Fatalf("expected ErrCredentialExpired without leeway, got %v", err)
	}
}
