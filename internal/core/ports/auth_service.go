package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// IdentityVerifier validates a bearer credential and returns its subject.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// TokenIssuer signs bearer credentials for a verified identity.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// IdentityAdmin creates and removes the identities users log in with.
type IdentityAdmin interface {
	CreateIdentity(ctx context.Context, email, password string) (string, error)
	DeleteIdentity(ctx context.Context, id string) error
}

// Gate authenticates bearer credentials and checks roles against the role store.
type Gate interface {
	Authenticate(ctx context.Context, credential string) (*domain.Identity, error)
	AuthorizeRole(ctx context.Context, identity *domain.Identity, allowed ...domain.Role) (domain.Role, error)
}

// AuthService exchanges credentials for a bearer token.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
