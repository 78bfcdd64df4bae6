package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// UserRepository stores user records and serves as the role store.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, role, student_id, birthday, department, program, year_level, photo_url, license, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.Role,
		&u.Profile.StudentID,
		&u.Profile.Birthday,
		&u.Profile.Department,
		&u.Profile.Program,
		&u.Profile.YearLevel,
		&u.Profile.PhotoURL,
		&u.Profile.License,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindRole reads the role for subject on every call; nothing is cached.
func (r *UserRepository) FindRole(ctx context.Context, subject string) (domain.Role, error) {
	var role domain.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, subject).Scan(&role)
	if err != nil {
		if isNotFound(err) {
			return "", domain.ErrRoleNotFound
		}
		return "", fmt.Errorf("find role: %w", err)
	}
	return role, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, role, student_id, birthday, department, program, year_level, photo_url, license, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	p := u.Profile
	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.DisplayName, string(u.Role),
		p.StudentID, p.Birthday, p.Department, p.Program, p.YearLevel, p.PhotoURL, p.License,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == codeUniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// Update writes every mutable column; callers normalize the profile first.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, role = $3, student_id = $4, birthday = $5, department = $6,
		    program = $7, year_level = $8, photo_url = $9, license = $10, updated_at = $11
		WHERE id = $1
	`

	p := u.Profile
	tag, err := r.pool.Exec(ctx, query,
		u.ID, u.DisplayName, string(u.Role),
		p.StudentID, p.Birthday, p.Department, p.Program, p.YearLevel, p.PhotoURL, p.License,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.Role != "" {
		query += ` WHERE role = $1`
		args = append(args, string(filter.Role))
	}
	query += ` ORDER BY name, email`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
