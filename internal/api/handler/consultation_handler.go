package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuscare/counseling-api/internal/api/metrics"
	"github.com/campuscare/counseling-api/internal/core/domain"
	"github.com/campuscare/counseling-api/internal/core/ports"
)

// ConsultationHandler handles HTTP requests for the booking workflow.
type ConsultationHandler struct {
	service ports.ConsultationService
}

func NewConsultationHandler(service ports.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

// Book handles POST /v1/consultations.
//
// @Summary      Request a consultation
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bookingRequest  true  "Counselor and schedule"
// @Success      201   {object}  consultationResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/consultations [post]
func (h *ConsultationHandler) Book(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req bookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.service.RequestBooking(c.Request().Context(), actor, ports.BookingInput{
		CounselorID: req.CounselorID,
		Date:        req.Date,
		Time:        req.Time,
	})
	observe("book", err)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/consultations/"+created.ID)
	return c.JSON(http.StatusCreated, toConsultationResponse(created))
}

// List handles GET /v1/consultations and GET /v1/admin/consultations.
//
// @Summary      List consultations visible to the caller
// @Tags         consultations
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"  Enums(pending, accepted, rejected)
// @Success      200     {object}  consultationListResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Router       /v1/consultations [get]
func (h *ConsultationHandler) List(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	list, err := h.service.ListConsultations(c.Request().Context(), actor, ports.ListConsultationsInput{
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConsultationList(list))
}

// Get handles GET /v1/consultations/:id.
//
// @Summary      Get a consultation
// @Tags         consultations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Consultation ID"
// @Success      200  {object}  consultationResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/consultations/{id} [get]
func (h *ConsultationHandler) Get(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	found, err := h.service.GetConsultation(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConsultationResponse(found))
}

// Notify handles POST /v1/consultations/:id/notify.
//
// @Summary      Send the booking emails to both parties
// @Description  Delivery outcomes are reported per recipient; a failed send never fails the request.
// @Tags         consultations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Consultation ID"
// @Success      200  {object}  notificationResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/consultations/{id}/notify [post]
func (h *ConsultationHandler) Notify(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	report, err := h.service.NotifyBooking(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	metrics.ObserveNotifications(report)
	return c.JSON(http.StatusOK, toNotificationResponse(report))
}

// Accept handles POST /v1/consultations/:id/accept.
//
// @Summary      Accept a consultation and provision its video room
// @Description  Idempotent: accepting an already accepted consultation returns the existing link.
// @Tags         consultations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Consultation ID"
// @Success      200  {object}  acceptResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/consultations/{id}/accept [post]
func (h *ConsultationHandler) Accept(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	result, err := h.service.AcceptConsultation(c.Request().Context(), actor, c.Param("id"))
	observe("accept", err)
	if err != nil {
		if errors.Is(err, domain.ErrProvisioningFailed) {
			metrics.RoomProvisioningTotal.WithLabelValues("failed").Inc()
		}
		return err
	}

	if result.AlreadyProvisioned {
		metrics.RoomProvisioningTotal.WithLabelValues("reused").Inc()
	} else {
		metrics.RoomProvisioningTotal.WithLabelValues("created").Inc()
		metrics.ObserveNotifications(result.Notifications)
	}

	return c.JSON(http.StatusOK, acceptResponse{
		Consultation:       toConsultationResponse(result.Consultation),
		VideoLink:          result.VideoLink,
		AlreadyProvisioned: result.AlreadyProvisioned,
		Notifications:      toNotificationResponse(result.Notifications),
	})
}

// Reject handles POST /v1/consultations/:id/reject.
//
// @Summary      Reject a consultation
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "Consultation ID"
// @Param        body  body      rejectRequest  false  "Optional reason"
// @Success      200   {object}  rejectResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/consultations/{id}/reject [post]
func (h *ConsultationHandler) Reject(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.RejectConsultation(c.Request().Context(), actor, c.Param("id"), req.Reason)
	observe("reject", err)
	if err != nil {
		return err
	}
	metrics.ObserveNotifications(result.Notifications)

	return c.JSON(http.StatusOK, rejectResponse{
		Consultation:  toConsultationResponse(result.Consultation),
		Notifications: toNotificationResponse(result.Notifications),
	})
}

// GetRoom handles GET /v1/consultations/:id/room.
//
// @Summary      Get the video room link
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Consultation ID"
// @Success      200  {object}  roomResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/consultations/{id}/room [get]
func (h *ConsultationHandler) GetRoom(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	link, err := h.service.GetRoom(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roomResponse{ConsultationID: id, VideoLink: link})
}

// DeleteRoom handles DELETE /v1/consultations/:id/room.
//
// @Summary      Delete the video room and return the consultation to pending
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Consultation ID"
// @Success      200  {object}  consultationResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/consultations/{id}/room [delete]
func (h *ConsultationHandler) DeleteRoom(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	cleared, err := h.service.DeleteRoom(c.Request().Context(), actor, c.Param("id"))
	observe("delete_room", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toConsultationResponse(cleared))
}

// AdminDelete handles DELETE /v1/admin/consultations/:id.
//
// @Summary      Delete a consultation
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Consultation ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/consultations/{id} [delete]
func (h *ConsultationHandler) AdminDelete(c echo.Context) error {
	actor, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	err = h.service.DeleteConsultation(c.Request().Context(), actor, c.Param("id"))
	observe("admin_delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// observe records the outcome of a state-changing operation.
func observe(operation string, err error) {
	metrics.ConsultationTransitionsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrRoleNotFound):
		return "denied"
	case errors.Is(err, domain.ErrConsultationNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRoomNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrProvisioningFailed):
		return "provisioning_failed"
	case errors.Is(err, domain.ErrPersistenceFailed):
		return "persistence_failed"
	default:
		return "error"
	}
}
