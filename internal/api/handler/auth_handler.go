package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/metrics"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthFailuresTotal.WithLabelValues("login").Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}
