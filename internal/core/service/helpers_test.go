package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func tokenFor(t *testing.T, subject string, role domain.Role) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{
		"sub":       subject,
		"role":      string(role),
		"email":     subject + "@example.com",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"exp":       testNow.Add(time.Hour).Unix(),
	})
}

// memStore is a fake ports.CredentialStore.
type memStore struct {
	token   string
	present bool
	cleared int
	sets    int
}

func newMemStore(token string) *memStore {
	return &memStore{token: token, present: token != ""}
}

func (s *memStore) Get() (string, bool) { return s.token, s.present }

func (s *memStore) Set(token string) {
	s.sets++
	s.token, s.present = token, token != ""
}

func (s *memStore) Clear() {
	s.cleared++
	s.token, s.present = "", false
}
