package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// UserService implements admin user management on top of the role store
// and the identity provider.
type UserService struct {
	gate       ports.Gate
	users      ports.UserRepository
	identities ports.IdentityAdmin
	logger     zerolog.Logger
}

func NewUserService(gate ports.Gate, users ports.UserRepository, identities ports.IdentityAdmin, logger zerolog.Logger) *UserService {
	return &UserService{gate: gate, users: users, identities: identities, logger: logger}
}

// CreateUser provisions the backing identity, then the user record. If the
// record cannot be stored the identity is removed again.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.provision(ctx, in)
}

func (s *UserService) provision(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	id, err := s.identities.CreateIdentity(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:          id,
		Email:       normalizeEmail(in.Email),
		DisplayName: name,
		Role:        role,
		Profile:     in.Profile,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	user.Normalize()

	if err := s.users.Create(ctx, user); err != nil {
		if delErr := s.identities.DeleteIdentity(ctx, id); delErr != nil {
			s.logger.Warn().Err(delErr).Str("user_id", id).Msg("failed to remove identity after user insert failure")
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to create user")
		return nil, fmt.Errorf("%w: create user: %v", domain.ErrPersistenceFailed, err)
	}

	s.logger.Info().Str("user_id", id).Str("role", string(role)).Msg("user created")
	return user, nil
}

// EnsureAdmin provisions the bootstrap admin unless an identity already uses the email.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	if name == "" {
		name = "Administrator"
	}
	_, err := s.provision(ctx, ports.CreateUserInput{
		Email:       email,
		Password:    password,
		DisplayName: name,
		Role:        string(domain.RoleAdmin),
	})
	if errors.Is(err, domain.ErrUserExists) {
		s.logger.Debug().Str("email", email).Msg("bootstrap admin already present")
		return nil
	}
	return err
}

// UpdateUser applies a partial update and re-derives the cleared profile
// fields from the resulting role.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		role, err := domain.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		user.DisplayName = name
	}
	if in.Profile != nil {
		user.Profile = *in.Profile
	}
	user.Normalize()
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: update user: %v", domain.ErrPersistenceFailed, err)
	}

	s.logger.Info().Str("user_id", id).Str("role", string(user.Role)).Msg("user updated")
	return user, nil
}

// DeleteUser removes the identity; the user record and its consultations cascade.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.Identity, id string) error {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return err
	}
	if actor.Subject == id {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrValidation)
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}

	if err := s.identities.DeleteIdentity(ctx, id); err != nil {
		return fmt.Errorf("%w: delete identity: %v", domain.ErrPersistenceFailed, err)
	}

	s.logger.Info().Str("user_id", id).Str("actor", actor.Subject).Msg("user deleted")
	return nil
}

func (s *UserService) GetUser(ctx context.Context, actor *domain.Identity, id string) (*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, actor *domain.Identity, role string) ([]*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	filter := ports.ListUsersFilter{}
	if role != "" {
		r, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		filter.Role = r
	}
	return s.users.List(ctx, filter)
}

// GetProfile returns the caller's own user record.
func (s *UserService) GetProfile(ctx context.Context, actor *domain.Identity) (*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, actor.Subject)
}

// ListCounselors is available to every authenticated role so students can book.
func (s *UserService) ListCounselors(ctx context.Context, actor *domain.Identity) ([]*domain.User, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, ports.ListUsersFilter{Role: domain.RoleCounselor})
}
