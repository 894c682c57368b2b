package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
)

type appointmentReadService interface {
	List(ctx context.Context, partition string, actorUID uuid.UUID, role string, filter repository.AppointmentListFilter) ([]models.AppointmentDetail, error)
	Get(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, apptID uuid.UUID) (*models.AppointmentDetail, error)
}

type ratingService interface {
	SubmitRating(ctx context.Context, partition string, actorUID uuid.UUID, appointment *models.Appointment, score float64) error
}

type AppointmentHandler struct {
	appointments appointmentReadService
	ratings      ratingService
}

func NewAppointmentHandler(appointments appointmentReadService, ratings ratingService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, ratings: ratings}
}

// ListAppointments returns the caller's appointments, optionally filtered by
// ?status=upcoming|active|done|canceled and ?day=Monday.
func (h *AppointmentHandler) ListAppointments(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	filter := repository.AppointmentListFilter{Status: c.Query("status")}
	if raw := c.Query("day"); raw != "" {
		day, err := schedule.ParseDay(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid day"})
		}
		filter.Day = day
	}

	details, err := h.appointments.List(c.Context(), requestPartition(c), uid, actorRole(c), filter)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"appointments": details, "count": len(details)})
}

func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	detail, err := h.appointments.Get(c.Context(), requestPartition(c), uid, actorRole(c), apptID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"appointment": detail})
}

type submitRatingPayload struct {
	Score float64 `json:"score" validate:"required,gte=1,lte=5"`
}

// SubmitRating rates the other party of a done appointment.
func (h *AppointmentHandler) SubmitRating(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	var payload submitRatingPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	partition := requestPartition(c)
	detail, err := h.appointments.Get(c.Context(), partition, uid, actorRole(c), apptID)
	if err != nil {
		return mapServiceError(c, err)
	}
	if err := h.ratings.SubmitRating(c.Context(), partition, uid, &detail.Appointment, payload.Score); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Rating submitted"})
}
