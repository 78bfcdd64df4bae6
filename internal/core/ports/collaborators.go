package ports

import (
	"context"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

// RoomProvisioner creates and deletes time-boxed video rooms.
type RoomProvisioner interface {
	CreateRoom(ctx context.Context, name string, opts domain.RoomOptions) (*domain.Room, error)
	// DeleteRoom treats an already missing room as success.
	DeleteRoom(ctx context.Context, name string) error
}

// Notifier sends transactional email. A provider refusal is reported as
// domain.ErrNotificationRejected; any other error is a delivery error.
type Notifier interface {
	Send(ctx context.Context, msg domain.Email) (string, error)
}

// MessageComposer renders the transactional emails of the booking workflow.
type MessageComposer interface {
	BookingRequested(c *domain.Consultation, student, counselor *domain.User, to domain.Recipient) domain.Email
	ConsultationAccepted(c *domain.Consultation, student, counselor *domain.User, to domain.Recipient) domain.Email
	ConsultationRejected(c *domain.Consultation, student, counselor *domain.User) domain.Email
}
