package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type clockReadService interface {
	ListPending(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string) ([]models.ClockEntry, error)
}

type ClockHandler struct {
	clock clockReadService
}

func NewClockHandler(clock clockReadService) *ClockHandler {
	return &ClockHandler{clock: clock}
}

// ListPending returns the pending clock entries for every location the
// caller supervises, oldest first.
func (h *ClockHandler) ListPending(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	entries, err := h.clock.ListPending(c.Context(), requestPartition(c), uid, actorRole(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"clock_entries": entries, "count": len(entries)})
}
