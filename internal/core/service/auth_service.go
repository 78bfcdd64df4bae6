package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements login and the identity administration used when
// admins provision users.
type AuthService struct {
	creds  ports.CredentialRepository
	users  ports.UserRepository
	issuer ports.TokenIssuer
	cost   int
}

func NewAuthService(creds ports.CredentialRepository, users ports.UserRepository, issuer ports.TokenIssuer) *AuthService {
	return &AuthService{creds: creds, users: users, issuer: issuer, cost: bcrypt.DefaultCost}
}

// CreateIdentity hashes the password and stores a new credential, returning its id.
func (s *AuthService) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", fmt.Errorf("%w: malformed email %q", domain.ErrValidation, email)
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}

	created, err := s.creds.Create(ctx, &domain.Credential{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// DeleteIdentity removes the credential; the datastore cascades dependent rows.
func (s *AuthService) DeleteIdentity(ctx context.Context, id string) error {
	return s.creds.Delete(ctx, id)
}

// Login checks the password and returns a signed bearer token with the user record.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	cred, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, cred.ID)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issuer.Issue(domain.Identity{Subject: cred.ID, Email: cred.Email})
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
