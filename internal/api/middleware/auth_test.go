package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "u_1",
		"role":  "owner",
		"email": "alice@rentals.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func runAuth(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret", "token")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "secret", validClaims()))

	rec, c, called := runAuth(t, req)

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextSubjectID) != "u_1" {
		t.Fatalf("subject not set")
	}
	if c.Get(ContextRole) != "OWNER" {
		t.Fatalf("role not normalised, got %v", c.Get(ContextRole))
	}
	if c.Get(ContextEmail) != "alice@rentals.test" {
		t.Fatalf("email not set")
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signedToken(t, "secret", validClaims())})

	rec, _, called := runAuth(t, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected cookie token to authenticate, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noExp := validClaims()
	delete(noExp, "exp")
	badRole := validClaims()
	badRole["role"] = "superuser"

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "invalid header format", header: "Token abc"},
		{name: "invalid token", header: "Bearer not-a-token"},
		{name: "wrong secret", header: "Bearer " + signedToken(t, "other", validClaims())},
		{name: "expired", header: "Bearer " + signedToken(t, "secret", expired)},
		{name: "no expiry", header: "Bearer " + signedToken(t, "secret", noExp)},
		{name: "unknown role", header: "Bearer " + signedToken(t, "secret", badRole)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec, _, called := runAuth(t, req)

			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
