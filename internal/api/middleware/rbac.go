package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/metrics"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// RequireRole asks the gate for the caller's current role on every request and
// rejects callers whose role is not in allowed. With no roles listed any
// registered user passes. Must run after Authenticate.
func RequireRole(gate ports.Gate, allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				metrics.AuthFailuresTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthenticated
			}

			role, err := gate.AuthorizeRole(c.Request().Context(), identity, allowed...)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				return err
			}

			c.Set(RoleKey, role)
			return next(c)
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrRoleNotFound):
		return "role_not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
