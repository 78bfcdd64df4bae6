package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// ConsultationRepository implements ports.ConsultationRepository on Postgres.
// The table carries a CHECK constraint tying video_link to status accepted.
type ConsultationRepository struct {
	pool *pgxpool.Pool
}

func NewConsultationRepository(pool *pgxpool.Pool) ports.ConsultationRepository {
	return &ConsultationRepository{pool: pool}
}

const consultationColumns = `id, scheduled_date, scheduled_time, status, student_id, counselor_id, video_link, notes, created_at, updated_at`

// markAcceptedQuery only matches a pending row without a link, so concurrent
// accepts cannot both win.
const markAcceptedQuery = `
		UPDATE consultations
		SET status = 'accepted', video_link = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending' AND video_link IS NULL
		RETURNING ` + consultationColumns

const markRejectedQuery = `
		UPDATE consultations
		SET status = 'rejected', video_link = NULL, notes = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + consultationColumns

const clearRoomQuery = `
		UPDATE consultations
		SET video_link = NULL,
		    status = CASE WHEN status = 'accepted' THEN 'pending' ELSE status END,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + consultationColumns

func scanConsultation(row pgx.Row) (*domain.Consultation, error) {
	var c domain.Consultation
	err := row.Scan(
		&c.ID,
		&c.Date,
		&c.Time,
		&c.Status,
		&c.StudentID,
		&c.CounselorID,
		&c.VideoLink,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConsultationRepository) Create(ctx context.Context, c *domain.Consultation) error {
	if err := c.CheckInvariants(); err != nil {
		return fmt.Errorf("create consultation: %w", err)
	}
	query := `
		INSERT INTO consultations (id, scheduled_date, scheduled_time, status, student_id, counselor_id, video_link, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Date, c.Time, string(c.Status), c.StudentID, c.CounselorID,
		c.VideoLink, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("create consultation: %w", domain.ErrUserNotFound)
		}
		return fmt.Errorf("create consultation: %w", err)
	}
	return nil
}

func (r *ConsultationRepository) FindByID(ctx context.Context, id string) (*domain.Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx, `SELECT `+consultationColumns+` FROM consultations WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("find consultation: %w", err)
	}
	return c, nil
}

func (r *ConsultationRepository) List(ctx context.Context, filter ports.ListConsultationsFilter) ([]*domain.Consultation, error) {
	where, args := consultationFilter(filter)
	query := `SELECT ` + consultationColumns + ` FROM consultations` + where + ` ORDER BY scheduled_date, scheduled_time, created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	out := []*domain.Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return out, nil
}

// consultationFilter builds the WHERE clause and its positional arguments.
func consultationFilter(f ports.ListConsultationsFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
	}
	if f.StudentID != "" {
		add("student_id", f.StudentID)
	}
	if f.CounselorID != "" {
		add("counselor_id", f.CounselorID)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// MarkAccepted is a compare-and-swap on (status pending, no link).
func (r *ConsultationRepository) MarkAccepted(ctx context.Context, id, videoLink string) (*domain.Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx, markAcceptedQuery, id, videoLink))
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("mark accepted: %w", err)
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrConsultationNotFound
	}
	return nil, domain.ErrConflict
}

func (r *ConsultationRepository) MarkRejected(ctx context.Context, id string, reason *string) (*domain.Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx, markRejectedQuery, id, reason))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("mark rejected: %w", err)
	}
	return c, nil
}

// ClearRoom drops the link; an accepted consultation goes back to pending.
func (r *ConsultationRepository) ClearRoom(ctx context.Context, id string) (*domain.Consultation, error) {
	c, err := scanConsultation(r.pool.QueryRow(ctx, clearRoomQuery, id))
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("clear room: %w", err)
	}
	return c, nil
}

func (r *ConsultationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConsultationNotFound
	}
	return nil
}

func (r *ConsultationRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM consultations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check consultation: %w", err)
	}
	return exists, nil
}
