package domain

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

// ConsultationStatus represents the lifecycle state of a consultation.
type ConsultationStatus string

const (
	StatusPending  ConsultationStatus = "pending"
	StatusAccepted ConsultationStatus = "accepted"
	StatusRejected ConsultationStatus = "rejected"
)

// validTransitions defines the allowed state machine transitions.
// accepted and rejected are terminal for the accept path; rejection is
// applied unconditionally by the reject operation.
var validTransitions = map[ConsultationStatus][]ConsultationStatus{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusRejected},
}

// Valid reports whether s is a known status.
func (s ConsultationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ConsultationStatus) CanTransitionTo(next ConsultationStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Consultation is a booking linking one student and one counselor to a date and time.
type Consultation struct {
	ID          string             `json:"id"`
	Date        string             `json:"date"`
	Time        string             `json:"time"`
	Status      ConsultationStatus `json:"status"`
	StudentID   string             `json:"student_id"`
	CounselorID string             `json:"counselor_id"`
	VideoLink   *string            `json:"video_link"`
	Notes       *string            `json:"notes"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// HasRoom reports whether a video room link has been provisioned.
func (c *Consultation) HasRoom() bool {
	return c.VideoLink != nil && *c.VideoLink != ""
}

// IsParticipant reports whether subject is the assigned student or counselor.
func (c *Consultation) IsParticipant(subject string) bool {
	return subject == c.StudentID || subject == c.CounselorID
}

// CheckInvariants verifies the video link / status coupling.
func (c *Consultation) CheckInvariants() error {
	switch {
	case c.Status == StatusAccepted && !c.HasRoom():
		return fmt.Errorf("%w: accepted consultation %s has no video link", ErrInvalidTransition, c.ID)
	case c.Status != StatusAccepted && c.VideoLink != nil:
		return fmt.Errorf("%w: %s consultation %s has a video link", ErrInvalidTransition, c.Status, c.ID)
	}
	return nil
}

// ValidateSchedule checks the booking date (YYYY-MM-DD) and time (HH:MM).
func ValidateSchedule(date, clock string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrValidation)
	}
	return nil
}

// RoomName derives a unique room name from the consultation id and creation time.
func RoomName(consultationID string, at time.Time) string {
	return fmt.Sprintf("consultation-%s-%d", sanitizeRoomPart(consultationID), at.UnixMilli())
}

var roomNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitizeRoomPart(s string) string {
	return roomNameUnsafe.ReplaceAllString(s, "")
}

// RoomNameFromURL returns the final path segment of a room URL.
func RoomNameFromURL(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: invalid room url", ErrValidation)
	}
	name := path.Base(strings.TrimRight(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("%w: room url has no name", ErrValidation)
	}
	return name, nil
}

// Room is an externally owned video room.
type Room struct {
	Name      string
	URL       string
	ExpiresAt time.Time
}

// RoomOptions are the properties requested when provisioning a room.
type RoomOptions struct {
	MaxParticipants   int
	ExpiresAt         time.Time
	EnableScreenshare bool
	EnableChat        bool
	CloudRecording    bool
	EnablePrejoinUI   bool
}

const (
	RoomMaxParticipants = 2
	RoomLifetime        = 24 * time.Hour
)

// ConsultationRoomOptions returns the fixed room properties for a consultation
// provisioned at now.
func ConsultationRoomOptions(now time.Time) RoomOptions {
	return RoomOptions{
		MaxParticipants:   RoomMaxParticipants,
		ExpiresAt:         now.Add(RoomLifetime),
		EnableScreenshare: true,
		EnableChat:        true,
		CloudRecording:    true,
		EnablePrejoinUI:   true,
	}
}
