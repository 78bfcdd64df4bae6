package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/core/ports"
)

// UserHandler serves the caller's own profile, the counselor directory and
// admin user management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me handles GET /v1/me.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetProfile(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Counselors handles GET /v1/counselors.
//
// @Summary      List counselors available for booking
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/counselors [get]
func (h *UserHandler) Counselors(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListCounselors(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserList(users))
}

// Create handles POST /v1/admin/users.
//
// @Summary      Create a user
// @Description  Profile fields not allowed for the role are cleared.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "User"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(c.Request().Context(), actor, ports.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
		Role:        req.Role,
		Profile:     req.Profile,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// List handles GET /v1/admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role  query     string  false  "Filter by role"  Enums(student, counselor, admin)
// @Success      200   {object}  userListResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.Request().Context(), actor, c.QueryParam("role"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserList(users))
}

// Get handles GET /v1/admin/users/:id.
//
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PUT /v1/admin/users/:id.
//
// @Summary      Update a user
// @Description  Changing the role clears the profile fields the new role does not allow.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), actor, c.Param("id"), ports.UpdateUserInput{
		DisplayName: req.Name,
		Role:        req.Role,
		Profile:     req.Profile,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /v1/admin/users/:id.
//
// @Summary      Delete a user and their consultations
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
