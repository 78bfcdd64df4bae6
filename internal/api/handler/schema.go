package handler

import (
	"github.com/campuscare/counseling-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// --- Consultations ---

type bookingRequest struct {
	CounselorID string `json:"counselor_id" validate:"required"`
	Date        string `json:"date"         validate:"required,datetime=2006-01-02"`
	Time        string `json:"time"         validate:"required,datetime=15:04"`
}

type rejectRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

type consultationLinks struct {
	Self string `json:"self"`
	Room string `json:"room,omitempty"`
}

type consultationResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Status      string  `json:"status"`
	StudentID   string  `json:"student_id"`
	CounselorID string  `json:"counselor_id"`
	VideoLink   *string `json:"video_link"`
	Notes       *string `json:"notes"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	Links consultationLinks `json:"_links"`
}

type consultationListResponse struct {
	Items []consultationResponse `json:"items"`
	Count int                    `json:"count"`
}

type notificationResponse struct {
	Results map[domain.Recipient]domain.DeliveryStatus `json:"results"`
	Errors  []string                                   `json:"errors"`
	AllSent bool                                       `json:"all_sent"`
}

type acceptResponse struct {
	Consultation       consultationResponse `json:"consultation"`
	VideoLink          string               `json:"video_link"`
	AlreadyProvisioned bool                 `json:"already_provisioned"`
	Notifications      notificationResponse `json:"notifications"`
}

type rejectResponse struct {
	Consultation  consultationResponse `json:"consultation"`
	Notifications notificationResponse `json:"notifications"`
}

type roomResponse struct {
	ConsultationID string `json:"consultation_id"`
	VideoLink      string `json:"video_link"`
}

// --- Users ---

type createUserRequest struct {
	Email    string         `json:"email"    validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Name     string         `json:"name"     validate:"required,max=200"`
	Role     string         `json:"role"     validate:"required,oneof=student counselor admin"`
	Profile  domain.Profile `json:"profile"`
}

type updateUserRequest struct {
	Name    *string         `json:"name"    validate:"omitempty,min=1,max=200"`
	Role    *string         `json:"role"    validate:"omitempty,oneof=student counselor admin"`
	Profile *domain.Profile `json:"profile"`
}

type userListResponse struct {
	Items []*domain.User `json:"items"`
	Count int            `json:"count"`
}
