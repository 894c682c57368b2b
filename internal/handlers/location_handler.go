package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type locationReadService interface {
	List(ctx context.Context, partition string) ([]models.Location, error)
	Get(ctx context.Context, partition string, locationID uuid.UUID) (*models.Location, error)
}

type websiteReadService interface {
	GetByDomain(ctx context.Context, partition, domain string) (*models.Website, error)
	ListByLocation(ctx context.Context, partition string, locationID uuid.UUID) ([]models.Website, error)
}

type LocationHandler struct {
	locations locationReadService
	websites  websiteReadService
}

func NewLocationHandler(locations locationReadService, websites websiteReadService) *LocationHandler {
	return &LocationHandler{locations: locations, websites: websites}
}

func (h *LocationHandler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.locations.List(c.Context(), requestPartition(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"locations": locations, "count": len(locations)})
}

func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	locationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	location, err := h.locations.Get(c.Context(), requestPartition(c), locationID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"location": location})
}

func (h *LocationHandler) ListLocationWebsites(c *fiber.Ctx) error {
	locationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location ID"})
	}

	websites, err := h.websites.ListByLocation(c.Context(), requestPartition(c), locationID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"websites": websites, "count": len(websites)})
}

// GetWebsiteByDomain resolves the public site config for a hostname. No auth:
// the site renderer calls this before any login.
func (h *LocationHandler) GetWebsiteByDomain(c *fiber.Ctx) error {
	domain := c.Params("domain")
	if domain == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid domain"})
	}

	website, err := h.websites.GetByDomain(c.Context(), requestPartition(c), domain)
	if err != nil {
		return mapServiceError(c, err)
	}
	if !website.Published {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	}
	return c.JSON(fiber.Map{"website": website})
}
