package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// RoleStore maps a subject identity to its role.
type RoleStore interface {
	// FindRole returns domain.ErrRoleNotFound when the subject has no user record.
	FindRole(ctx context.Context, subject string) (domain.Role, error)
}

// ListUsersFilter narrows user listings. An empty Role lists every user.
type ListUsersFilter struct {
	Role domain.Role
}

// UserRepository defines persistence operations for user records.
type UserRepository interface {
	RoleStore
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, error)
}
