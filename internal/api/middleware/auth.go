package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// Context keys set by Auth and EdgeGate.
const (
	ContextSubjectID = "subject_id"
	ContextRole      = "role"
	ContextEmail     = "email"
	ContextDecision  = "gate_decision"
)

// Auth validates the JWT and injects claims into context. The token is read
// from the Authorization header, falling back to the session cookie.
func Auth(jwtSecret, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c, cookieName)
			if err != nil {
				return err
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			subject, _ := claims.GetSubject()
			if subject == "" {
				subject, _ = claims["id"].(string)
			}
			role, _ := claims["role"].(string)
			role = strings.ToUpper(strings.TrimSpace(role))
			if subject == "" || !domain.Role(role).Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing identity claims")
			}

			c.Set(ContextSubjectID, subject)
			c.Set(ContextRole, role)
			c.Set(ContextEmail, claims["email"])

			return next(c)
		}
	}
}

func bearerToken(c echo.Context, cookieName string) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
}
