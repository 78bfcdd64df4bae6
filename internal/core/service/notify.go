package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

var errNoRecipient = errors.New("recipient has no email address")

// participants loads both parties of a consultation. A missing user is
// returned as nil and surfaces later as a delivery error for that recipient.
func (s *consultationService) participants(ctx context.Context, c *domain.Consultation) (student, counselor *domain.User) {
	var err error
	if student, err = s.users.FindByID(ctx, c.StudentID); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID).Str("user_id", c.StudentID).Msg("failed to load student")
		student = nil
	}
	if counselor, err = s.users.FindByID(ctx, c.CounselorID); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", c.ID).Str("user_id", c.CounselorID).Msg("failed to load counselor")
		counselor = nil
	}
	return student, counselor
}

// notifyBoth sends the booking emails concurrently. Each goroutine owns its
// own result slot; the report is filled after both return.
func (s *consultationService) notifyBoth(ctx context.Context, c *domain.Consultation, student, counselor *domain.User) *domain.NotificationReport {
	var studentErr, counselorErr error
	var g errgroup.Group
	g.Go(func() error {
		studentErr = s.send(ctx, student, func() domain.Email {
			return s.composer.BookingRequested(c, student, counselor, domain.RecipientStudent)
		})
		return nil
	})
	g.Go(func() error {
		counselorErr = s.send(ctx, counselor, func() domain.Email {
			return s.composer.BookingRequested(c, student, counselor, domain.RecipientCounselor)
		})
		return nil
	})
	_ = g.Wait()

	report := domain.NewNotificationReport()
	report.Record(domain.RecipientStudent, studentErr)
	report.Record(domain.RecipientCounselor, counselorErr)
	return report
}

// notifyAccepted sends the student email, waits notifyDelay, then sends the
// counselor email.
func (s *consultationService) notifyAccepted(ctx context.Context, c *domain.Consultation, student, counselor *domain.User) *domain.NotificationReport {
	report := domain.NewNotificationReport()
	report.Record(domain.RecipientStudent, s.send(ctx, student, func() domain.Email {
		return s.composer.ConsultationAccepted(c, student, counselor, domain.RecipientStudent)
	}))

	if err := sleep(ctx, s.notifyDelay); err != nil {
		report.Record(domain.RecipientCounselor, fmt.Errorf("not sent: %w", err))
		return report
	}

	report.Record(domain.RecipientCounselor, s.send(ctx, counselor, func() domain.Email {
		return s.composer.ConsultationAccepted(c, student, counselor, domain.RecipientCounselor)
	}))
	return report
}

// send composes and delivers one email. The error is logged here and only
// ever returned as data.
func (s *consultationService) send(ctx context.Context, to *domain.User, compose func() domain.Email) error {
	if to == nil || to.Email == "" {
		return errNoRecipient
	}
	msg := compose()
	msg.To = to.Email

	id, err := s.notifier.Send(ctx, msg)
	if err != nil {
		s.log.Warn().Err(err).Str("to", to.ID).Str("subject", msg.Subject).Msg("notification not delivered")
		return err
	}
	s.log.Debug().Str("to", to.ID).Str("message_id", id).Msg("notification sent")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
