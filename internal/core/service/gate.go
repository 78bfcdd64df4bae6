package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// AuthorizationGate authenticates bearer credentials and re-derives the
// caller's role from the role store on every check.
type AuthorizationGate struct {
	verifier ports.IdentityVerifier
	roles    ports.RoleStore
}

func NewAuthorizationGate(verifier ports.IdentityVerifier, roles ports.RoleStore) *AuthorizationGate {
	return &AuthorizationGate{verifier: verifier, roles: roles}
}

// Authenticate verifies the credential with the identity verifier.
func (g *AuthorizationGate) Authenticate(ctx context.Context, credential string) (*domain.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, domain.ErrUnauthenticated
	}
	identity, err := g.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if identity == nil || identity.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}

// AuthorizeRole looks up the identity's role and checks it against allowed.
// An empty allowed list accepts any known role.
func (g *AuthorizationGate) AuthorizeRole(ctx context.Context, identity *domain.Identity, allowed ...domain.Role) (domain.Role, error) {
	if identity == nil || identity.Subject == "" {
		return "", domain.ErrUnauthenticated
	}

	role, err := g.roles.FindRole(ctx, identity.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return "", domain.ErrRoleNotFound
		}
		return "", fmt.Errorf("authorize role: %w", err)
	}

	if len(allowed) == 0 {
		return role, nil
	}
	for _, r := range allowed {
		if r == role {
			return role, nil
		}
	}
	return "", domain.ErrUnauthorized
}
