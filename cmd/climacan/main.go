package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/climacan/climacan/internal/api/http"
	"github.com/climacan/climacan/internal/collector"
	"github.com/climacan/climacan/internal/config"
	"github.com/climacan/climacan/internal/provider/aemet"
	"github.com/climacan/climacan/internal/provider/grafcan"
	"github.com/climacan/climacan/internal/scheduler"
	"github.com/climacan/climacan/internal/supervisor"
	"github.com/climacan/climacan/internal/writer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Store writer, shared by both collector loops.
	w, err := writer.New(cfg.QuestDBAddr)
	if err != nil {
		log.Fatalf("failed to create store writer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New()

	// One collector loop per provider. A missing token is fatal for that
	// provider's worker only; the sibling still runs.
	var collectors []supervisor.Collector

	if cfg.AemetToken == "" {
		log.Printf("aemet: AEMET_TOKEN is not set; aemet collector will not start")
	} else {
		client := aemet.NewClient(httpClient, cfg.AemetToken)
		collectors = append(collectors, collector.New[aemet.Payload](client, w, collector.Config{
			PollInterval: cfg.AemetPollInterval,
			BackoffBase:  cfg.BackoffBase,
			BackoffMax:   cfg.BackoffMax,
		}))
	}

	if cfg.GrafcanToken == "" {
		log.Printf("grafcan: GRAFCAN_TOKEN is not set; grafcan collector will not start")
	} else {
		client := grafcan.NewClient(httpClient, cfg.GrafcanToken)

		// Initial registry load; the loop retries lazily if it fails here.
		if err := client.RefreshStations(ctx); err != nil {
			log.Printf("grafcan: initial station registry load failed: %v", err)
		}
		if err := sched.ScheduleRegistryRefresh(cfg.GrafcanStationsCron, cfg.HTTPTimeout, client); err != nil {
			log.Fatalf("grafcan: failed to schedule station registry refresh: %v", err)
		}

		collectors = append(collectors, collector.New[grafcan.Payload](client, w, collector.Config{
			PollInterval: cfg.GrafcanPollInterval,
			BackoffBase:  cfg.BackoffBase,
			BackoffMax:   cfg.BackoffMax,
		}))
	}

	if len(collectors) == 0 {
		log.Fatalf("no provider tokens configured; nothing to collect")
	}

	sched.Start()
	defer sched.Stop()

	sup := supervisor.StartAll(ctx, collectors...)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "climacan",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "climacan",
		})
	})

	// Worker liveness routes.
	httpapi.RegisterRoutes(app, sup)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Keep-alive: block until an external stop signal arrives or every worker
	// has stopped on its own.
	sup.Wait(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if err := w.Close(shutdownCtx); err != nil {
		log.Printf("error closing store writer: %v", err)
	}
}
