package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/ltumat/AirQualityPrediction/internal/api/http"
	"github.com/ltumat/AirQualityPrediction/internal/common"
	"github.com/ltumat/AirQualityPrediction/internal/config"
	"github.com/ltumat/AirQualityPrediction/internal/scheduler"
	"github.com/ltumat/AirQualityPrediction/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinate sync on a schedule and expose the HTTP API",
	RunE:  runServe,
}

var (
	flagInterval time.Duration
	flagPort     string
)

func init() {
	serveCmd.Flags().DurationVar(&flagInterval, "interval", 0, "sync interval (default from SYNC_INTERVAL)")
	serveCmd.Flags().StringVar(&flagPort, "port", "", "HTTP listen port (default from PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	file := common.FirstNonEmpty(flagFile, cfg.SensorsFile)
	token := common.FirstNonEmpty(flagToken, cfg.AqicnToken)

	interval := cfg.SyncInterval
	if flagInterval > 0 {
		interval = flagInterval
	}
	port := common.FirstNonEmpty(flagPort, cfg.Port)

	registryStore, service, _ := buildService(cfg, token, log.Default())

	// Run history with configured retention.
	history := store.NewMemoryStore(cfg.RunMaxHistory, cfg.RunMaxAge)
	runner := scheduler.NewRunner(service, history, file)

	// Scheduler that periodically refreshes coordinates.
	sched := scheduler.New(runner, interval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sensor-sync",
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
			"service": "sensor-sync",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.API{
		Store:   registryStore,
		File:    file,
		Runner:  runner,
		History: history,
	})

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	log.Printf("INFO: serving on port %s, syncing %s every %s", port, file, interval)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}
