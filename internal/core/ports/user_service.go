package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// CreateUserInput carries everything needed to provision a user and its identity.
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
	Profile     domain.Profile
}

// UpdateUserInput is a partial update. Nil fields keep their current value,
// except profile fields, which are re-normalized for the resulting role.
type UpdateUserInput struct {
	DisplayName *string
	Role        *string
	Profile     *domain.Profile
}

// UserService defines admin user management and self-service lookups.
type UserService interface {
	CreateUser(ctx context.Context, actor *domain.Identity, in CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, actor *domain.Identity, id string, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.Identity, id string) error
	GetUser(ctx context.Context, actor *domain.Identity, id string) (*domain.User, error)
	ListUsers(ctx context.Context, actor *domain.Identity, role string) ([]*domain.User, error)
	GetProfile(ctx context.Context, actor *domain.Identity) (*domain.User, error)
	ListCounselors(ctx context.Context, actor *domain.Identity) ([]*domain.User, error)
}
