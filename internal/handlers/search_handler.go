package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/schedule"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
	"github.com/nicholaschiang/foss-tutorbook/pkg/utils"
)

// Defaults for the bookable-slot preview on the tutor detail view; actual
// lesson length is settled per location when a request is approved.
const (
	detailLessonMinutes   = 60
	detailSlotStepMinutes = 30
)

type tutorSearchService interface {
	MatchTutors(ctx context.Context, partition string, query services.SearchQuery) ([]models.TutorWithScore, error)
}

type tutorProfileService interface {
	Get(ctx context.Context, partition string, uid uuid.UUID) (*models.User, error)
}

type SearchHandler struct {
	search   tutorSearchService
	profiles tutorProfileService
}

func NewSearchHandler(search tutorSearchService, profiles tutorProfileService) *SearchHandler {
	return &SearchHandler{search: search, profiles: profiles}
}

// SearchTutors ranks tutors for the query. Subjects arrive comma-separated.
func (h *SearchHandler) SearchTutors(c *fiber.Ctx) error {
	partition := requestPartition(c)

	query := services.SearchQuery{
		Location: strings.TrimSpace(c.Query("location")),
	}
	if raw := strings.TrimSpace(c.Query("subjects")); raw != "" {
		for _, subject := range strings.Split(raw, ",") {
			if subject = strings.TrimSpace(subject); subject != "" {
				query.Subjects = append(query.Subjects, subject)
			}
		}
	}
	if raw := c.Query("max_rate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid max_rate"})
		}
		query.MaxHourlyRate = rate
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit"})
		}
		query.Limit = limit
	}

	tutors, err := h.search.MatchTutors(c.Context(), partition, query)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tutors": tutors, "count": len(tutors)})
}

// GetTutor returns a single tutor profile for the discovery detail view.
func (h *SearchHandler) GetTutor(c *fiber.Ctx) error {
	partition := requestPartition(c)

	uid, err := utils.ParseUID(c.Params("uid"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid uid"})
	}

	user, err := h.profiles.Get(c.Context(), partition, uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	if user.Role != models.RoleTutor {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	}

	slots := make([]string, 0)
	for _, window := range user.Availability.OpenWindows() {
		for _, slot := range schedule.Slots(window, detailLessonMinutes, detailSlotStepMinutes) {
			slots = append(slots, schedule.FormatWindowString(slot))
		}
	}
	return c.JSON(fiber.Map{"tutor": user, "slots": slots})
}
