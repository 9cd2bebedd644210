package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tutorplatform/lesson_service/models"
)

// Identity reads the trusted X-User-Id / X-User-Role headers forwarded by
// the gateway. The gateway already verified the caller; no token is checked
// here.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawID := c.Get("X-User-Id")
		if rawID == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"status": "error", "message": "Missing X-User-Id header"})
		}
		callerID, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"status": "error", "message": "Malformed X-User-Id header"})
		}

		rawRole := c.Get("X-User-Role")
		if rawRole == "" {
			rawRole = string(models.RoleStudent)
		}
		role, ok := models.ParseRole(strings.ToUpper(rawRole))
		if !ok {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"status": "error", "message": "Unknown X-User-Role header"})
		}

		c.Locals("callerID", callerID)
		c.Locals("callerRole", role)
		return c.Next()
	}
}
