package handlers

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

const maxMaterialSizeBytes = 20 * 1024 * 1024

type materialService interface {
	Upload(ctx context.Context, partition string, actorUID, apptID uuid.UUID, title string, description *string, file multipart.File, filename string) (*models.Material, error)
	List(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, apptID uuid.UUID) ([]models.Material, error)
	Delete(ctx context.Context, partition string, actorUID, materialID uuid.UUID) error
}

type MaterialHandler struct {
	materials materialService
}

func NewMaterialHandler(materials materialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// Upload attaches a lesson material to an appointment. Multipart form:
// "file" plus "title" and optional "description" fields.
func (h *MaterialHandler) Upload(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}
	if fileHeader.Size > maxMaterialSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file exceeds 20MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open file"})
	}
	defer file.Close()

	title := strings.TrimSpace(c.FormValue("title"))
	var description *string
	if value := strings.TrimSpace(c.FormValue("description")); value != "" {
		description = &value
	}

	material, err := h.materials.Upload(c.Context(), requestPartition(c), uid, apptID, title, description, file, fileHeader.Filename)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"material": material})
}

func (h *MaterialHandler) List(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	materials, err := h.materials.List(c.Context(), requestPartition(c), uid, actorRole(c), apptID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"materials": materials, "count": len(materials)})
}

func (h *MaterialHandler) Delete(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	materialID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	if err := h.materials.Delete(c.Context(), requestPartition(c), uid, materialID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": materialID})
}
