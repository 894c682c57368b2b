package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Partition resolves the data partition for the request from the X-Partition
// header, falling back to the configured default. Every row the request
// touches is scoped to this value.
func Partition(defaultPartition string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		partition := strings.TrimSpace(c.Get("X-Partition"))
		if partition == "" {
			partition = defaultPartition
		}
		c.Locals("partition", partition)
		return c.Next()
	}
}
