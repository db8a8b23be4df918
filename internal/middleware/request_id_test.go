package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paytrack/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	app := fiber.New()
	app.Use(RequestID(logger.NewWithWriter(buf)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		log := logger.FromContext(c.UserContext())
		log.Info().Msg("handled")
		return c.SendString(c.Locals(LocalsRequestID).(string))
	})

	t.Run("generates id", func(t *testing.T) {
		buf.Reset()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.NoError(t, err)

		id := resp.Header.Get(HeaderRequestID)
		_, err = uuid.Parse(id)
		assert.NoError(t, err)
		assert.True(t, strings.Contains(buf.String(), id), "request logger should carry the id")
	})

	t.Run("keeps caller id", func(t *testing.T) {
		want := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, want)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Header.Get(HeaderRequestID))
	})

	t.Run("replaces malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "not-a-uuid")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, "not-a-uuid", resp.Header.Get(HeaderRequestID))
	})
}
