package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// CredentialRepository stores login identities.
type CredentialRepository struct {
	pool *pgxpool.Pool
}

func NewCredentialRepository(pool *pgxpool.Pool) ports.CredentialRepository {
	return &CredentialRepository{pool: pool}
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM identities
		WHERE email = $1
	`

	var c domain.Credential
	err := r.pool.QueryRow(ctx, query, email).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	query := `
		INSERT INTO identities (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	created := *c
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if _, err := r.pool.Exec(ctx, query, created.ID, created.Email, created.PasswordHash, created.CreatedAt); err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &created, nil
}

// Delete removes the identity; users and consultations cascade.
func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
