package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

const maxAvatarSizeBytes = 5 * 1024 * 1024

type profileService interface {
	Get(ctx context.Context, partition string, uid uuid.UUID) (*models.User, error)
	Update(ctx context.Context, partition string, actorUID uuid.UUID, actorRole string, targetUID uuid.UUID, input services.UpdateUserInput) (*models.User, error)
}

type ProfileHandler struct {
	profiles profileService
	storage  services.StorageService
}

func NewProfileHandler(profiles profileService, storage services.StorageService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, storage: storage}
}

// UploadAvatar stores the uploaded image and points the caller's profile at
// it, deleting the previous object when one exists.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if h.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage service is not configured"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	if fileHeader.Size <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is empty"})
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file exceeds 5MB limit"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to open avatar file"})
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar must be a jpg, jpeg, png, or webp file"})
	}

	partition := requestPartition(c)
	filename := fmt.Sprintf("%s-%d%s", uid, time.Now().UnixNano(), ext)
	avatarURL, err := h.storage.UploadFile(c.Context(), file, filename, "avatars")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	current, err := h.profiles.Get(c.Context(), partition, uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	if current.AvatarURL != nil && *current.AvatarURL != "" && *current.AvatarURL != avatarURL {
		_ = h.storage.DeleteFile(c.Context(), *current.AvatarURL)
	}

	user, err := h.profiles.Update(c.Context(), partition, uid, actorRole(c), uid, services.UpdateUserInput{
		UpdateUserInput: repository.UpdateUserInput{AvatarURL: &avatarURL},
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar_url": avatarURL,
		"user":       user,
	})
}
