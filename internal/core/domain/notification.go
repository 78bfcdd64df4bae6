package domain

import (
	"errors"
	"fmt"
	"time"
)

// Recipient identifies the party a notification is addressed to.
type Recipient string

const (
	RecipientStudent   Recipient = "student"
	RecipientCounselor Recipient = "counselor"
)

// DeliveryStatus is the per-recipient result of a best-effort send.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
	DeliveryError  DeliveryStatus = "error"
)

// Email is a rendered transactional message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// NotificationReport aggregates best-effort send outcomes. It is always
// returned as data, never as an error.
type NotificationReport struct {
	Results map[Recipient]DeliveryStatus `json:"results"`
	Errors  []string                     `json:"errors"`
}

// NewNotificationReport returns an empty report.
func NewNotificationReport() *NotificationReport {
	return &NotificationReport{
		Results: make(map[Recipient]DeliveryStatus),
		Errors:  []string{},
	}
}

// Record classifies err for recipient r and stores the outcome.
func (n *NotificationReport) Record(r Recipient, err error) DeliveryStatus {
	status := ClassifyDelivery(err)
	n.Results[r] = status
	if err != nil {
		n.Errors = append(n.Errors, fmt.Sprintf("%s: %v", r, err))
	}
	return status
}

// Merge copies other's outcomes into n.
func (n *NotificationReport) Merge(other *NotificationReport) {
	if other == nil {
		return
	}
	for r, s := range other.Results {
		n.Results[r] = s
	}
	n.Errors = append(n.Errors, other.Errors...)
}

// AllSent reports whether every recorded send succeeded.
func (n *NotificationReport) AllSent() bool {
	for _, s := range n.Results {
		if s != DeliverySent {
			return false
		}
	}
	return true
}

// ClassifyDelivery maps a notifier error to a delivery status.
func ClassifyDelivery(err error) DeliveryStatus {
	switch {
	case err == nil:
		return DeliverySent
	case errors.Is(err, ErrNotificationRejected):
		return DeliveryFailed
	default:
		return DeliveryError
	}
}

// ConsultationEventType names an entry in the consultation audit trail.
type ConsultationEventType string

const (
	EventBooked       ConsultationEventType = "booked"
	EventNotified     ConsultationEventType = "notified"
	EventAccepted     ConsultationEventType = "accepted"
	EventRejected     ConsultationEventType = "rejected"
	EventRoomDeleted  ConsultationEventType = "room_deleted"
	EventAdminDeleted ConsultationEventType = "admin_deleted"
)

// ConsultationEvent is one audit trail record.
type ConsultationEvent struct {
	ConsultationID string
	Type           ConsultationEventType
	ActorID        string
	Status         ConsultationStatus
	Notifications  map[Recipient]DeliveryStatus
	Timestamp      time.Time
}
