package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// DefaultNotifyDelay separates the two acceptance emails so the provider does
// not collapse near-identical sends.
const DefaultNotifyDelay = time.Second

// ConsultationDeps groups the collaborators of the consultation workflow.
// Audit and Guard are optional.
type ConsultationDeps struct {
	Consultations ports.ConsultationRepository
	Users         ports.UserRepository
	Gate          ports.Gate
	Rooms         ports.RoomProvisioner
	Notifier      ports.Notifier
	Composer      ports.MessageComposer
	Audit         ports.AuditRepository
	Guard         ports.AcceptGuard
	NotifyDelay   time.Duration
}

type consultationService struct {
	repo        ports.ConsultationRepository
	users       ports.UserRepository
	gate        ports.Gate
	rooms       ports.RoomProvisioner
	notifier    ports.Notifier
	composer    ports.MessageComposer
	audit       ports.AuditRepository
	guard       ports.AcceptGuard
	notifyDelay time.Duration
	now         func() time.Time
	newID       func() string
	log         zerolog.Logger
}

// NewConsultationService returns the consultation workflow coordinator.
func NewConsultationService(deps ConsultationDeps, log zerolog.Logger) ports.ConsultationService {
	s := &consultationService{
		repo:        deps.Consultations,
		users:       deps.Users,
		gate:        deps.Gate,
		rooms:       deps.Rooms,
		notifier:    deps.Notifier,
		composer:    deps.Composer,
		audit:       deps.Audit,
		guard:       deps.Guard,
		notifyDelay: deps.NotifyDelay,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
		log:         log,
	}
	if s.guard == nil {
		s.guard = noopGuard{}
	}
	if s.notifyDelay < 0 {
		s.notifyDelay = 0
	}
	return s
}

// RequestBooking creates a pending consultation for the calling student.
func (s *consultationService) RequestBooking(ctx context.Context, actor *domain.Identity, in ports.BookingInput) (*domain.Consultation, error) {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleStudent); err != nil {
		return nil, err
	}

	counselorID := strings.TrimSpace(in.CounselorID)
	if counselorID == "" {
		return nil, fmt.Errorf("%w: counselor_id is required", domain.ErrValidation)
	}
	if err := domain.ValidateSchedule(in.Date, in.Time); err != nil {
		return nil, err
	}

	role, err := s.users.FindRole(ctx, counselorID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, fmt.Errorf("%w: counselor %s", domain.ErrUserNotFound, counselorID)
		}
		return nil, fmt.Errorf("request booking: %w", err)
	}
	if role != domain.RoleCounselor {
		return nil, fmt.Errorf("%w: user %s is not a counselor", domain.ErrValidation, counselorID)
	}

	now := s.now()
	c := &domain.Consultation{
		ID:          s.newID(),
		Date:        in.Date,
		Time:        in.Time,
		Status:      domain.StatusPending,
		StudentID:   actor.Subject,
		CounselorID: counselorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.log.Error().Err(err).Str("student_id", actor.Subject).Msg("failed to create consultation")
		return nil, persistenceError("create consultation", err)
	}

	s.record(ctx, c, domain.EventBooked, actor.Subject, nil)
	s.log.Info().
		Str("consultation_id", c.ID).
		Str("student_id", c.StudentID).
		Str("counselor_id", c.CounselorID).
		Msg("consultation booked")
	return c, nil
}

// NotifyBooking tells both parties about a new booking. The two sends are
// independent; their outcomes are returned, never raised.
func (s *consultationService) NotifyBooking(ctx context.Context, actor *domain.Identity, id string) (*domain.NotificationReport, error) {
	role, err := s.gate.AuthorizeRole(ctx, actor)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && c.StudentID != actor.Subject {
		return nil, domain.ErrUnauthorized
	}

	student, counselor := s.participants(ctx, c)
	report := s.notifyBoth(ctx, c, student, counselor)

	s.record(ctx, c, domain.EventNotified, actor.Subject, report)
	return report, nil
}

// AcceptConsultation provisions a room and marks the consultation accepted.
// Repeated calls return the existing link without provisioning again.
func (s *consultationService) AcceptConsultation(ctx context.Context, actor *domain.Identity, id string) (*ports.AcceptResult, error) {
	c, err := s.authorizeCounselorAction(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if c.HasRoom() {
		return alreadyAccepted(c), nil
	}
	if !c.Status.CanTransitionTo(domain.StatusAccepted) {
		return nil, fmt.Errorf("accept consultation: %w (from %s)", domain.ErrInvalidTransition, c.Status)
	}

	acquired, err := s.guard.Acquire(ctx, c.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID).Msg("accept guard unavailable, relying on conditional update")
	} else if !acquired {
		return nil, fmt.Errorf("accept consultation: %w: accept already in progress", domain.ErrConflict)
	} else {
		defer func() {
			if err := s.guard.Release(context.WithoutCancel(ctx), c.ID); err != nil {
				s.log.Warn().Err(err).Str("consultation_id", c.ID).Msg("failed to release accept guard")
			}
		}()
		// another process may have finished between the first read and the guard
		if c, err = s.load(ctx, id); err != nil {
			return nil, err
		}
		if c.HasRoom() {
			return alreadyAccepted(c), nil
		}
		if !c.Status.CanTransitionTo(domain.StatusAccepted) {
			return nil, fmt.Errorf("accept consultation: %w (from %s)", domain.ErrInvalidTransition, c.Status)
		}
	}

	now := s.now()
	name := domain.RoomName(c.ID, now)
	room, err := s.rooms.CreateRoom(ctx, name, domain.ConsultationRoomOptions(now))
	if err != nil {
		s.log.Error().Err(err).Str("consultation_id", c.ID).Str("room", name).Msg("room provisioning failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrProvisioningFailed, err)
	}

	accepted, err := s.repo.MarkAccepted(ctx, c.ID, room.URL)
	if err != nil {
		s.discardRoom(ctx, c.ID, room.Name)
		if errors.Is(err, domain.ErrConflict) {
			return s.resolveLostRace(ctx, c.ID)
		}
		s.log.Error().Err(err).Str("consultation_id", c.ID).Msg("failed to persist video link")
		return nil, persistenceError("accept consultation", err)
	}

	s.log.Info().Str("consultation_id", c.ID).Str("room", room.Name).Msg("consultation accepted")

	student, counselor := s.participants(ctx, accepted)
	report := s.notifyAccepted(ctx, accepted, student, counselor)
	s.record(ctx, accepted, domain.EventAccepted, actor.Subject, report)

	return &ports.AcceptResult{
		Consultation:  accepted,
		VideoLink:     room.URL,
		Notifications: report,
	}, nil
}

// RejectConsultation sets status rejected and clears the video link from any
// prior status. The student is notified best-effort.
func (s *consultationService) RejectConsultation(ctx context.Context, actor *domain.Identity, id string, reason *string) (*ports.RejectResult, error) {
	c, err := s.authorizeCounselorAction(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	rejected, err := s.repo.MarkRejected(ctx, c.ID, trimmed(reason))
	if err != nil {
		s.log.Error().Err(err).Str("consultation_id", c.ID).Msg("failed to persist rejection")
		return nil, persistenceError("reject consultation", err)
	}
	if c.HasRoom() {
		if name, err := domain.RoomNameFromURL(*c.VideoLink); err == nil {
			s.discardRoom(ctx, c.ID, name)
		}
	}

	s.log.Info().Str("consultation_id", c.ID).Str("previous_status", string(c.Status)).Msg("consultation rejected")

	student, counselor := s.participants(ctx, rejected)
	report := domain.NewNotificationReport()
	report.Record(domain.RecipientStudent, s.send(ctx, student, func() domain.Email {
		return s.composer.ConsultationRejected(rejected, student, counselor)
	}))
	s.record(ctx, rejected, domain.EventRejected, actor.Subject, report)

	return &ports.RejectResult{Consultation: rejected, Notifications: report}, nil
}

// GetRoom returns the video link to a participant or an admin.
func (s *consultationService) GetRoom(ctx context.Context, actor *domain.Identity, id string) (string, error) {
	c, err := s.GetConsultation(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if !c.HasRoom() {
		return "", domain.ErrRoomNotFound
	}
	return *c.VideoLink, nil
}

// DeleteRoom tears down the provisioned room and returns the consultation to
// pending without a link.
func (s *consultationService) DeleteRoom(ctx context.Context, actor *domain.Identity, id string) (*domain.Consultation, error) {
	c, err := s.authorizeCounselorAction(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !c.HasRoom() {
		return nil, domain.ErrRoomNotFound
	}

	name, err := domain.RoomNameFromURL(*c.VideoLink)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.DeleteRoom(ctx, name); err != nil {
		s.log.Error().Err(err).Str("consultation_id", c.ID).Str("room", name).Msg("room deletion failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrProvisioningFailed, err)
	}

	cleared, err := s.repo.ClearRoom(ctx, c.ID)
	if err != nil {
		s.log.Error().Err(err).Str("consultation_id", c.ID).Msg("failed to clear video link")
		return nil, persistenceError("delete room", err)
	}

	s.record(ctx, cleared, domain.EventRoomDeleted, actor.Subject, nil)
	s.log.Info().Str("consultation_id", c.ID).Str("room", name).Msg("room deleted")
	return cleared, nil
}

// GetConsultation returns a consultation to its student, its counselor or an admin.
func (s *consultationService) GetConsultation(ctx context.Context, actor *domain.Identity, id string) (*domain.Consultation, error) {
	role, err := s.gate.AuthorizeRole(ctx, actor)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && !c.IsParticipant(actor.Subject) {
		return nil, domain.ErrUnauthorized
	}
	return c, nil
}

// ListConsultations scopes the listing by the caller's role.
func (s *consultationService) ListConsultations(ctx context.Context, actor *domain.Identity, in ports.ListConsultationsInput) ([]*domain.Consultation, error) {
	role, err := s.gate.AuthorizeRole(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := ports.ListConsultationsFilter{}
	if in.Status != "" {
		status := domain.ConsultationStatus(in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, in.Status)
		}
		filter.Status = status
	}
	switch role {
	case domain.RoleStudent:
		filter.StudentID = actor.Subject
	case domain.RoleCounselor:
		filter.CounselorID = actor.Subject
	}

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return list, nil
}

// DeleteConsultation removes a consultation and, best-effort, its room.
func (s *consultationService) DeleteConsultation(ctx context.Context, actor *domain.Identity, id string) error {
	if _, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleAdmin); err != nil {
		return err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, c.ID); err != nil {
		return persistenceError("delete consultation", err)
	}
	if c.HasRoom() {
		if name, err := domain.RoomNameFromURL(*c.VideoLink); err == nil {
			s.discardRoom(ctx, c.ID, name)
		}
	}

	s.record(ctx, c, domain.EventAdminDeleted, actor.Subject, nil)
	s.log.Info().Str("consultation_id", c.ID).Str("actor", actor.Subject).Msg("consultation deleted")
	return nil
}

// authorizeCounselorAction applies the accept/reject/delete-room rule: the
// assigned counselor or an admin.
func (s *consultationService) authorizeCounselorAction(ctx context.Context, actor *domain.Identity, id string) (*domain.Consultation, error) {
	role, err := s.gate.AuthorizeRole(ctx, actor, domain.RoleCounselor, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && c.CounselorID != actor.Subject {
		return nil, domain.ErrUnauthorized
	}
	return c, nil
}

func (s *consultationService) load(ctx context.Context, id string) (*domain.Consultation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrConsultationNotFound
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrConsultationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	return c, nil
}

// resolveLostRace returns the winner's link after a concurrent accept
// committed first.
func (s *consultationService) resolveLostRace(ctx context.Context, id string) (*ports.AcceptResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.HasRoom() {
		s.log.Info().Str("consultation_id", id).Msg("concurrent accept already committed")
		return alreadyAccepted(current), nil
	}
	return nil, fmt.Errorf("accept consultation: %w (now %s)", domain.ErrConflict, current.Status)
}

// discardRoom deletes a room that is no longer referenced. Failures are logged.
func (s *consultationService) discardRoom(ctx context.Context, consultationID, name string) {
	if err := s.rooms.DeleteRoom(context.WithoutCancel(ctx), name); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", consultationID).Str("room", name).Msg("failed to delete orphaned room")
	}
}

func (s *consultationService) record(ctx context.Context, c *domain.Consultation, typ domain.ConsultationEventType, actorID string, report *domain.NotificationReport) {
	if s.audit == nil {
		return
	}
	event := &domain.ConsultationEvent{
		ConsultationID: c.ID,
		Type:           typ,
		ActorID:        actorID,
		Status:         c.Status,
		Timestamp:      s.now(),
	}
	if report != nil {
		event.Notifications = report.Results
	}
	if err := s.audit.InsertEvent(context.WithoutCancel(ctx), event); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID).Str("event", string(typ)).Msg("failed to insert audit event")
	}
}

func alreadyAccepted(c *domain.Consultation) *ports.AcceptResult {
	return &ports.AcceptResult{
		Consultation:       c,
		VideoLink:          *c.VideoLink,
		AlreadyProvisioned: true,
	}
}

func persistenceError(op string, err error) error {
	if errors.Is(err, domain.ErrConsultationNotFound) || errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceFailed, op, err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

type noopGuard struct{}

func (noopGuard) Acquire(context.Context, string) (bool, error) { return true, nil }
func (noopGuard) Release(context.Context, string) error         { return nil }
