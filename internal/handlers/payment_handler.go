package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type paymentReadService interface {
	ListForUser(ctx context.Context, partition string, actorUID uuid.UUID) ([]models.Payment, error)
	ListPayouts(ctx context.Context, partition string, actorUID uuid.UUID) ([]models.Payout, error)
}

type PaymentHandler struct {
	payments paymentReadService
}

func NewPaymentHandler(payments paymentReadService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// ListPayments returns payments where the caller is payer or payee.
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	payments, err := h.payments.ListForUser(c.Context(), requestPartition(c), uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payments": payments, "count": len(payments)})
}

// ListPayouts returns the caller's payout history, newest first.
func (h *PaymentHandler) ListPayouts(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	payouts, err := h.payments.ListPayouts(c.Context(), requestPartition(c), uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payouts": payouts, "count": len(payouts)})
}
