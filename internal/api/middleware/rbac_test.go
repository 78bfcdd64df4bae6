package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/service"
)

func newRBACContext(id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(IdentityKey, id)
	}
	return c, rec
}

func TestRequireRole_Allows(t *testing.T) {
	roles := &stubRoles{roles: map[string]domain.Role{"u-1": domain.RoleCounselor}}
	gate := service.NewAuthorizationGate(newTestJWT(t), roles)
	c, rec := newRBACContext(&domain.Identity{Subject: "u-1"})

	called := false
	handler := RequireRole(gate, domain.RoleCounselor, domain.RoleAdmin)(func(c echo.Context) error {
		called = true
		if c.Get(RoleKey) != domain.RoleCounselor {
			t.Fatalf("role not set: %v", c.Get(RoleKey))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	roles := &stubRoles{roles: map[string]domain.Role{"u-1": domain.RoleStudent}}
	gate := service.NewAuthorizationGate(newTestJWT(t), roles)
	c, _ := newRBACContext(&domain.Identity{Subject: "u-1"})

	err := RequireRole(gate, domain.RoleAdmin)(func(echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRequireRole_UnknownSubject(t *testing.T) {
	gate := service.NewAuthorizationGate(newTestJWT(t), &stubRoles{})
	c, _ := newRBACContext(&domain.Identity{Subject: "ghost"})

	err := RequireRole(gate)(func(echo.Context) error { return nil })(c)
	if !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRequireRole_MissingIdentity(t *testing.T) {
	gate := service.NewAuthorizationGate(newTestJWT(t), &stubRoles{})
	c, _ := newRBACContext(nil)

	err := RequireRole(gate)(func(echo.Context) error { return nil })(c)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// The role store is consulted on every request, so a demotion takes effect
// without re-issuing the token.
func TestRequireRole_ReadsRoleEveryRequest(t *testing.T) {
	roles := &stubRoles{roles: map[string]domain.Role{"u-1": domain.RoleAdmin}}
	gate := service.NewAuthorizationGate(newTestJWT(t), roles)
	mw := RequireRole(gate, domain.RoleAdmin)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c, _ := newRBACContext(&domain.Identity{Subject: "u-1"})
	if err := mw(next)(c); err != nil {
		t.Fatalf("first request: %v", err)
	}

	roles.roles["u-1"] = domain.RoleStudent
	c, _ = newRBACContext(&domain.Identity{Subject: "u-1"})
	if err := mw(next)(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after demotion, got %v", err)
	}
	if roles.calls != 2 {
		t.Fatalf("expected 2 role lookups, got %d", roles.calls)
	}
}
