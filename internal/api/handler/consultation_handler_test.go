package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

var (
	student   = &domain.Identity{Subject: "stu-1", Email: "ana@campus.edu"}
	counselor = &domain.Identity{Subject: "coun-1", Email: "dr.reyes@campus.edu"}
)

func pendingConsultation() *domain.Consultation {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Consultation{
		ID:          "c-1",
		Date:        "2026-03-10",
		Time:        "14:30",
		Status:      domain.StatusPending,
		StudentID:   student.Subject,
		CounselorID: counselor.Subject,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func acceptedConsultation() *domain.Consultation {
	c := pendingConsultation()
	c.Status = domain.StatusAccepted
	c.VideoLink = strPtr("https://campus.daily.co/consultation-c-1-1")
	return c
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func TestConsultationHandler_Book_Created(t *testing.T) {
	stub := &stubConsultationService{
		bookFn: func(actor *domain.Identity, in ports.BookingInput) (*domain.Consultation, error) {
			if actor.Subject != student.Subject {
				t.Fatalf("unexpected actor %s", actor.Subject)
			}
			if in.CounselorID != "coun-1" || in.Date != "2026-03-10" || in.Time != "14:30" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return pendingConsultation(), nil
		},
	}
	h := NewConsultationHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/consultations",
		`{"counselor_id":"coun-1","date":"2026-03-10","time":"14:30"}`, student)
	if err := h.Book(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/v1/consultations/c-1" {
		t.Fatalf("unexpected Location %q", loc)
	}

	var resp consultationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "pending" || resp.VideoLink != nil || resp.Links.Room != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.CreatedAt != "2026-03-01T09:00:00Z" {
		t.Fatalf("unexpected created_at %q", resp.CreatedAt)
	}
}

func TestConsultationHandler_Book_BadSchedule(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		bookFn: func(*domain.Identity, ports.BookingInput) (*domain.Consultation, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newContext(http.MethodPost, "/v1/consultations",
		`{"counselor_id":"coun-1","date":"10/03/2026","time":"2pm"}`, student)
	var he *echo.HTTPError
	if err := h.Book(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestConsultationHandler_RequiresIdentity(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{})

	c, _ := newContext(http.MethodGet, "/v1/consultations", "", nil)
	if err := h.List(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Accept / Reject
// ---------------------------------------------------------------------------

func TestConsultationHandler_Accept(t *testing.T) {
	report := domain.NewNotificationReport()
	report.Record(domain.RecipientStudent, nil)
	report.Record(domain.RecipientCounselor, domain.ErrNotificationRejected)

	stub := &stubConsultationService{
		acceptFn: func(actor *domain.Identity, id string) (*ports.AcceptResult, error) {
			if id != "c-1" {
				t.Fatalf("unexpected id %q", id)
			}
			c := acceptedConsultation()
			return &ports.AcceptResult{Consultation: c, VideoLink: *c.VideoLink, Notifications: report}, nil
		},
	}
	h := NewConsultationHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/consultations/c-1/accept", "", counselor)
	if err := h.Accept(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp acceptResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.VideoLink != "https://campus.daily.co/consultation-c-1-1" || resp.AlreadyProvisioned {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Consultation.Links.Room != "/v1/consultations/c-1/room" {
		t.Fatalf("room link missing: %+v", resp.Consultation.Links)
	}
	if resp.Notifications.AllSent {
		t.Fatalf("all_sent must be false when a send failed")
	}
	if resp.Notifications.Results[domain.RecipientCounselor] != domain.DeliveryFailed {
		t.Fatalf("unexpected counselor outcome: %+v", resp.Notifications.Results)
	}
}

func TestConsultationHandler_Accept_PropagatesError(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		acceptFn: func(*domain.Identity, string) (*ports.AcceptResult, error) {
			return nil, domain.ErrProvisioningFailed
		},
	})

	c, _ := newContext(http.MethodPost, "/v1/consultations/c-1/accept", "", counselor)
	if err := h.Accept(withID(c, "c-1")); !errors.Is(err, domain.ErrProvisioningFailed) {
		t.Fatalf("expected ErrProvisioningFailed, got %v", err)
	}
}

func TestConsultationHandler_Reject_WithReason(t *testing.T) {
	var gotReason *string
	stub := &stubConsultationService{
		rejectFn: func(actor *domain.Identity, id string, reason *string) (*ports.RejectResult, error) {
			gotReason = reason
			c := pendingConsultation()
			c.Status = domain.StatusRejected
			c.Notes = reason
			return &ports.RejectResult{Consultation: c, Notifications: domain.NewNotificationReport()}, nil
		},
	}
	h := NewConsultationHandler(stub)

	c, rec := newContext(http.MethodPost, "/v1/consultations/c-1/reject", `{"reason":"schedule clash"}`, counselor)
	if err := h.Reject(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotReason == nil || *gotReason != "schedule clash" {
		t.Fatalf("reason not forwarded: %v", gotReason)
	}
}

func TestConsultationHandler_Reject_EmptyBody(t *testing.T) {
	called := false
	h := NewConsultationHandler(&stubConsultationService{
		rejectFn: func(_ *domain.Identity, _ string, reason *string) (*ports.RejectResult, error) {
			called = true
			if reason != nil {
				t.Fatalf("expected nil reason, got %q", *reason)
			}
			c := pendingConsultation()
			c.Status = domain.StatusRejected
			return &ports.RejectResult{Consultation: c, Notifications: domain.NewNotificationReport()}, nil
		},
	})

	c, _ := newContext(http.MethodPost, "/v1/consultations/c-1/reject", "", counselor)
	if err := h.Reject(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("service not called")
	}
}

// ---------------------------------------------------------------------------
// Rooms, listing and admin delete
// ---------------------------------------------------------------------------

func TestConsultationHandler_GetRoom(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		roomFn: func(*domain.Identity, string) (string, error) {
			return "https://campus.daily.co/consultation-c-1-1", nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/consultations/c-1/room", "", student)
	if err := h.GetRoom(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp roomResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ConsultationID != "c-1" || resp.VideoLink == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConsultationHandler_DeleteRoom(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		delRoomFn: func(*domain.Identity, string) (*domain.Consultation, error) {
			return pendingConsultation(), nil
		},
	})

	c, rec := newContext(http.MethodDelete, "/v1/consultations/c-1/room", "", counselor)
	if err := h.DeleteRoom(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp consultationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "pending" || resp.VideoLink != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestConsultationHandler_List_ForwardsStatus(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		listFn: func(_ *domain.Identity, in ports.ListConsultationsInput) ([]*domain.Consultation, error) {
			if in.Status != "accepted" {
				t.Fatalf("unexpected status filter %q", in.Status)
			}
			return []*domain.Consultation{acceptedConsultation()}, nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/consultations?status=accepted", "", counselor)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp consultationListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Count != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected list: %+v", resp)
	}
}

func TestConsultationHandler_AdminDelete(t *testing.T) {
	h := NewConsultationHandler(&stubConsultationService{
		deleteFn: func(_ *domain.Identity, id string) error {
			if id != "c-1" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil
		},
	})

	c, rec := newContext(http.MethodDelete, "/v1/admin/consultations/c-1", "", counselor)
	if err := h.AdminDelete(withID(c, "c-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":                  nil,
		"denied":              domain.ErrUnauthorized,
		"not_found":           domain.ErrConsultationNotFound,
		"invalid":             domain.ErrInvalidRole,
		"invalid_transition":  domain.ErrInvalidTransition,
		"conflict":            domain.ErrConflict,
		"provisioning_failed": domain.ErrProvisioningFailed,
		"persistence_failed":  domain.ErrPersistenceFailed,
		"error":               errors.New("boom"),
	}
	for want, err := range cases {
		if got := outcome(err); got != want {
			t.Errorf("outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
