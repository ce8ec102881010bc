package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"uvocollab/config"
	controller "uvocollab/controllers"
	"uvocollab/lifecycle"
	"uvocollab/middleware"
	"uvocollab/routes"
	"uvocollab/utils"
	"uvocollab/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "UVOCOLLAB: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Error reporting
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// External integrations
	utils.InitStripe()
	controller.InitGoogleOAuth()
	esignClient := utils.NewESignClient()

	// The lifecycle manager owns every status transition
	notifier := utils.NewDBNotifier(config.DB)
	manager := lifecycle.NewManager(config.DB, log.New(os.Stdout, "LIFECYCLE: ", log.LstdFlags), notifier, esignClient)
	manager.Mailer = utils.NewCollabMailer(config.DB)

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	contractWorker := worker.NewContractWorker(config.DB, esignClient, manager, log.New(os.Stdout, "CONTRACT: ", log.LstdFlags))
	go contractWorker.Start(ctx)

	payoutWorker := worker.NewPayoutWorker(config.DB, manager, notifier, log.New(os.Stdout, "PAYOUT: ", log.LstdFlags))
	go payoutWorker.Start(ctx)

	// Setup routes
	routes.SetupAuthRoutes(app, config.DB)
	routes.SetupAPIRoutes(app, config.DB, manager)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
