package handler

import (
	"time"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

func toConsultationResponse(c *domain.Consultation) consultationResponse {
	self := "/v1/consultations/" + c.ID
	links := consultationLinks{Self: self}
	if c.HasRoom() {
		links.Room = self + "/room"
	}
	return consultationResponse{
		ID:          c.ID,
		Date:        c.Date,
		Time:        c.Time,
		Status:      string(c.Status),
		StudentID:   c.StudentID,
		CounselorID: c.CounselorID,
		VideoLink:   c.VideoLink,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
		Links:       links,
	}
}

func toConsultationList(cs []*domain.Consultation) consultationListResponse {
	items := make([]consultationResponse, 0, len(cs))
	for _, c := range cs {
		items = append(items, toConsultationResponse(c))
	}
	return consultationListResponse{Items: items, Count: len(items)}
}

func toNotificationResponse(r *domain.NotificationReport) notificationResponse {
	if r == nil {
		r = domain.NewNotificationReport()
	}
	return notificationResponse{Results: r.Results, Errors: r.Errors, AllSent: r.AllSent()}
}

func toUserList(us []*domain.User) userListResponse {
	if us == nil {
		us = []*domain.User{}
	}
	return userListResponse{Items: us, Count: len(us)}
}
