package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/metrics"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// Context keys set by the auth middlewares.
const (
	IdentityKey = "identity"
	RoleKey     = "role"
)

// Authenticate verifies the bearer credential through the gate and stores the
// resulting identity in the echo context. No role is derived here.
func Authenticate(gate ports.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				return err
			}

			identity, err := gate.Authenticate(c.Request().Context(), token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				return err
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Authenticate.
func IdentityFrom(c echo.Context) (*domain.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(*domain.Identity)
	return identity, ok && identity != nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.Join(domain.ErrUnauthenticated, errors.New("missing authorization header"))
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.Join(domain.ErrUnauthenticated, errors.New("invalid authorization header"))
	}
	return strings.TrimSpace(token), nil
}
