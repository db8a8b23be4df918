// Package main is the entry point for the HTTP server.
// It loads configuration, builds the ledger, mounts the routes and serves until signalled.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"paytrack/internal/app"
	"paytrack/internal/config"
	"paytrack/internal/logger"
	"paytrack/internal/middleware"
	"paytrack/internal/repositories"
	"paytrack/internal/routes"
	"paytrack/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// .env is optional
	_ = config.LoadEnv()

	cfg, err := config.Load()
	log := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize ledger")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("failed to release resources")
		}
	}()

	if container.DB != nil {
		go repositories.PoolStats(ctx, container.DB, log, time.Minute)
	}

	server := fiber.New(fiber.Config{
		AppName: "paytrack",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return response.Error(c, fe.Code, fe.Message)
			}
			reqLog := logger.FromContextOr(c.UserContext(), log)
			reqLog.Error().Err(err).Msg("unhandled error")
			return response.ServerError(c, "Internal server error")
		},
	})

	server.Use(recover.New())
	server.Use(middleware.RequestID(log))
	origins := strings.Join(cfg.Server.CORSOrigins, ",")
	server.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + middleware.HeaderRequestID,
		AllowMethods:     "GET,POST,HEAD,OPTIONS",
		AllowCredentials: !strings.Contains(origins, "*"),
	}))
	server.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${respHeader:X-Request-ID}\n",
	}))

	routes.SetupRoutes(server, routes.Dependencies{
		Ledger: container.Ledger,
		Health: container.Health,
		Server: cfg.Server,
	})

	go func() {
		if err := server.Listen(":" + cfg.Server.Port); err != nil {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()
	log.Info().Str("port", cfg.Server.Port).Str("store", cfg.Ledger.Store).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	if err := server.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
