// Package routes defines the API routing configuration.
// It wires the ledger and health handlers and applies per-route middleware.
package routes

import (
	"paytrack/internal/config"
	"paytrack/internal/handlers"
	"paytrack/internal/middleware"
	"paytrack/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the services the routes dispatch to.
type Dependencies struct {
	Ledger ledger.Service
	Health *handlers.HealthHandler
	Server config.ServerConfig
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger)

	if deps.Health != nil {
		app.Get("/health", deps.Health.Check)
	}

	api := app.Group("/api")

	writeLimit := func(c *fiber.Ctx) error { return c.Next() }
	if deps.Server.RateLimitMax > 0 {
		writeLimit = middleware.RateLimit(deps.Server.RateLimitMax, deps.Server.RateLimitWindow)
	}

	api.Post("/payments", writeLimit, ledgerHandler.RecordPayment)
	api.Get("/balance/:userId/:otherUserId", ledgerHandler.GetBalance)
	api.Get("/transactions/:userId/:otherUserId", ledgerHandler.GetTransactions)
	api.Post("/users/:userId/ensure", writeLimit, ledgerHandler.EnsureUser)
}
