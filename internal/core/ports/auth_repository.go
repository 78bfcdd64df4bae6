package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// CredentialRepository defines persistence for the login records backing identities.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Create(ctx context.Context, cred *domain.Credential) (*domain.Credential, error)
	// Delete removes the identity. Dependent user and consultation rows cascade.
	Delete(ctx context.Context, id string) error
}
