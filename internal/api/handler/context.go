package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/middleware"
	"github.com/campuscare/counseling-api/internal/core/domain"
)

// ctxIdentity returns the identity injected by the Authenticate middleware.
// Its absence means the route was registered without authentication.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}
