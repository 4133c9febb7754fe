package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dentallab/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

var errNoPrincipal = errors.New("request is not authenticated")

// Claims are the bearer token claims: the subject is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies HS256 bearer tokens and stores the caller's kernel.Principal on
// the echo context.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "missing bearer token",
				})
			}

			principal, err := parseToken(secret, token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Code:    http.StatusUnauthorized,
					Message: "invalid or expired token",
				})
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func parseToken(secret []byte, raw string) (kernel.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return kernel.Principal{}, err
	}

	userID, err := kernel.UUIDFromString(claims.Subject)
	if err != nil {
		return kernel.Principal{}, fmt.Errorf("subject: %w", err)
	}
	role, err := kernel.ParseRole(claims.Role)
	if err != nil {
		return kernel.Principal{}, fmt.Errorf("role: %w", err)
	}
	return kernel.NewPrincipal(userID, role)
}

// IssueToken signs a token for principal. The service never logs anyone in itself; this
// is used by tooling and tests.
func IssueToken(secret []byte, principal kernel.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: principal.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func principalFrom(c echo.Context) (kernel.Principal, error) {
	p, ok := c.Get(principalKey).(kernel.Principal)
	if !ok {
		return kernel.Principal{}, errNoPrincipal
	}
	return p, nil
}
