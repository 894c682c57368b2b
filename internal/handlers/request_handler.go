package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

type requestReadService interface {
	List(ctx context.Context, partition string, actorUID uuid.UUID, role string, filter repository.RequestListFilter) ([]models.RequestDetail, error)
	Get(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, requestID uuid.UUID) (*models.RequestDetail, error)
}

type RequestHandler struct {
	requests requestReadService
}

func NewRequestHandler(requests requestReadService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// ListRequests returns the caller's requests (both sides of the match),
// optionally filtered by ?status=pending|approved|rejected|canceled|expired.
func (h *RequestHandler) ListRequests(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	details, err := h.requests.List(c.Context(), requestPartition(c), uid, actorRole(c), repository.RequestListFilter{
		Status: c.Query("status"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": details, "count": len(details)})
}

func (h *RequestHandler) GetRequest(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	requestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	detail, err := h.requests.Get(c.Context(), requestPartition(c), uid, actorRole(c), requestID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": detail})
}
