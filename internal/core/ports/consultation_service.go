package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// BookingInput carries the data a student submits to request a consultation.
type BookingInput struct {
	CounselorID string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM
}

// ListConsultationsInput carries the optional status filter for listings.
type ListConsultationsInput struct {
	Status string
}

// AcceptResult is returned by AcceptConsultation.
type AcceptResult struct {
	Consultation *domain.Consultation
	VideoLink    string
	// AlreadyProvisioned is true when the consultation already had a room and
	// no new side effects were issued.
	AlreadyProvisioned bool
	Notifications      *domain.NotificationReport
}

// RejectResult is returned by RejectConsultation.
type RejectResult struct {
	Consultation  *domain.Consultation
	Notifications *domain.NotificationReport
}

// ConsultationService coordinates consultation state transitions, room
// provisioning and best-effort notification.
type ConsultationService interface {
	RequestBooking(ctx context.Context, actor *domain.Identity, in BookingInput) (*domain.Consultation, error)
	NotifyBooking(ctx context.Context, actor *domain.Identity, consultationID string) (*domain.NotificationReport, error)
	AcceptConsultation(ctx context.Context, actor *domain.Identity, consultationID string) (*AcceptResult, error)
	RejectConsultation(ctx context.Context, actor *domain.Identity, consultationID string, reason *string) (*RejectResult, error)
	GetRoom(ctx context.Context, actor *domain.Identity, consultationID string) (string, error)
	DeleteRoom(ctx context.Context, actor *domain.Identity, consultationID string) (*domain.Consultation, error)

	GetConsultation(ctx context.Context, actor *domain.Identity, consultationID string) (*domain.Consultation, error)
	ListConsultations(ctx context.Context, actor *domain.Identity, in ListConsultationsInput) ([]*domain.Consultation, error)
	DeleteConsultation(ctx context.Context, actor *domain.Identity, consultationID string) error
}
