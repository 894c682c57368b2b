package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/nicholaschiang/foss-tutorbook/internal/config"
	"github.com/nicholaschiang/foss-tutorbook/internal/database"
	"github.com/nicholaschiang/foss-tutorbook/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	sweeper := routes.RegisterRoutes(app, cfg, database.DB)

	scheduler := cron.New()
	if err := sweeper.Schedule(scheduler, cfg.SweepSpec, cfg.ReminderSpec); err != nil {
		log.Fatalf("Failed to schedule workers: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
