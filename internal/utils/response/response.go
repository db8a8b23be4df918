package response

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func OK(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func ServiceUnavailable(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(data)
}

// ValidationError reports field messages along with a readable summary.
func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  strings.Join(parts, "; "),
		"fields": fields,
	})
}
