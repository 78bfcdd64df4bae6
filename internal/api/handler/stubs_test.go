package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/middleware"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Service stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubConsultationService struct {
	bookFn    func(actor *domain.Identity, in ports.BookingInput) (*domain.Consultation, error)
	notifyFn  func(actor *domain.Identity, id string) (*domain.NotificationReport, error)
	acceptFn  func(actor *domain.Identity, id string) (*ports.AcceptResult, error)
	rejectFn  func(actor *domain.Identity, id string, reason *string) (*ports.RejectResult, error)
	roomFn    func(actor *domain.Identity, id string) (string, error)
	delRoomFn func(actor *domain.Identity, id string) (*domain.Consultation, error)
	getFn     func(actor *domain.Identity, id string) (*domain.Consultation, error)
	listFn    func(actor *domain.Identity, in ports.ListConsultationsInput) ([]*domain.Consultation, error)
	deleteFn  func(actor *domain.Identity, id string) error
}

func (s *stubConsultationService) RequestBooking(_ context.Context, actor *domain.Identity, in ports.BookingInput) (*domain.Consultation, error) {
	return s.bookFn(actor, in)
}

func (s *stubConsultationService) NotifyBooking(_ context.Context, actor *domain.Identity, id string) (*domain.NotificationReport, error) {
	return s.notifyFn(actor, id)
}

func (s *stubConsultationService) AcceptConsultation(_ context.Context, actor *domain.Identity, id string) (*ports.AcceptResult, error) {
	return s.acceptFn(actor, id)
}

func (s *stubConsultationService) RejectConsultation(_ context.Context, actor *domain.Identity, id string, reason *string) (*ports.RejectResult, error) {
	return s.rejectFn(actor, id, reason)
}

func (s *stubConsultationService) GetRoom(_ context.Context, actor *domain.Identity, id string) (string, error) {
	return s.roomFn(actor, id)
}

func (s *stubConsultationService) DeleteRoom(_ context.Context, actor *domain.Identity, id string) (*domain.Consultation, error) {
	return s.delRoomFn(actor, id)
}

func (s *stubConsultationService) GetConsultation(_ context.Context, actor *domain.Identity, id string) (*domain.Consultation, error) {
	return s.getFn(actor, id)
}

func (s *stubConsultationService) ListConsultations(_ context.Context, actor *domain.Identity, in ports.ListConsultationsInput) ([]*domain.Consultation, error) {
	return s.listFn(actor, in)
}

func (s *stubConsultationService) DeleteConsultation(_ context.Context, actor *domain.Identity, id string) error {
	return s.deleteFn(actor, id)
}

type stubUserService struct {
	createFn     func(actor *domain.Identity, in ports.CreateUserInput) (*domain.User, error)
	updateFn     func(actor *domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn     func(actor *domain.Identity, id string) error
	getFn        func(actor *domain.Identity, id string) (*domain.User, error)
	listFn       func(actor *domain.Identity, role string) ([]*domain.User, error)
	profileFn    func(actor *domain.Identity) (*domain.User, error)
	counselorsFn func(actor *domain.Identity) ([]*domain.User, error)
}

func (s *stubUserService) CreateUser(_ context.Context, actor *domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(actor, in)
}

func (s *stubUserService) UpdateUser(_ context.Context, actor *domain.Identity, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(actor, id, in)
}

func (s *stubUserService) DeleteUser(_ context.Context, actor *domain.Identity, id string) error {
	return s.deleteFn(actor, id)
}

func (s *stubUserService) GetUser(_ context.Context, actor *domain.Identity, id string) (*domain.User, error) {
	return s.getFn(actor, id)
}

func (s *stubUserService) ListUsers(_ context.Context, actor *domain.Identity, role string) ([]*domain.User, error) {
	return s.listFn(actor, role)
}

func (s *stubUserService) GetProfile(_ context.Context, actor *domain.Identity) (*domain.User, error) {
	return s.profileFn(actor)
}

func (s *stubUserService) ListCounselors(_ context.Context, actor *domain.Identity) ([]*domain.User, error) {
	return s.counselorsFn(actor)
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// newContext builds an echo context with the validator installed and, when
// actor is non-nil, the identity the Authenticate middleware would set.
func newContext(method, target, body string, actor *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set(middleware.IdentityKey, actor)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func strPtr(s string) *string { return &s }
