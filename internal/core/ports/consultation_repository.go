package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// ListConsultationsFilter carries the query parameters for listing consultations.
// StudentID and CounselorID are always enforced by the service layer.
type ListConsultationsFilter struct {
	StudentID   string // empty = no filter
	CounselorID string // empty = no filter
	Status      domain.ConsultationStatus
}

// ConsultationRepository defines persistence operations for consultations.
type ConsultationRepository interface {
	Create(ctx context.Context, c *domain.Consultation) error
	FindByID(ctx context.Context, id string) (*domain.Consultation, error)
	// List returns consultations ordered by date then time.
	List(ctx context.Context, filter ListConsultationsFilter) ([]*domain.Consultation, error)

	// MarkAccepted sets the video link and status accepted only while the
	// consultation is still pending without a link. It returns
	// domain.ErrConflict when that condition no longer holds.
	MarkAccepted(ctx context.Context, id, videoLink string) (*domain.Consultation, error)
	// MarkRejected sets status rejected, clears the video link and stores the reason.
	MarkRejected(ctx context.Context, id string, reason *string) (*domain.Consultation, error)
	// ClearRoom clears the video link and returns the consultation to pending.
	ClearRoom(ctx context.Context, id string) (*domain.Consultation, error)
	Delete(ctx context.Context, id string) error
}

// AuditRepository stores the consultation audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.ConsultationEvent) error
}

// AcceptGuard serialises accept attempts for one consultation across processes.
type AcceptGuard interface {
	// Acquire returns false when another attempt currently holds the guard.
	Acquire(ctx context.Context, consultationID string) (bool, error)
	Release(ctx context.Context, consultationID string) error
}
