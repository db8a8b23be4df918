package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ParseLimit reads the limit query parameter. A missing or malformed value yields 0,
// which the ledger maps to its default page size.
func ParseLimit(c *fiber.Ctx) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
