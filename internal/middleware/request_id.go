// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"paytrack/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"
	LocalsRequestID = "request_id"
)

// RequestID tags each request with an id, echoes it in the response and attaches a
// request-scoped logger to the user context.
func RequestID(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Locals(LocalsRequestID, id)

		reqLog := log.With().
			Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))
		return c.Next()
	}
}
