package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "uvocollab/controllers"
	"uvocollab/lifecycle"
	"uvocollab/middleware"
	"uvocollab/models"
	"uvocollab/ws"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/forgot-password", controller.ForgotPassword)
	auth.Post("/reset-password", controller.ResetPassword)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// OTP routes group
	otp := app.Group("/otp", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	otp.Post("/send", controller.SendOTP)
	otp.Post("/verify", controller.VerifyOTP)
	otp.Post("/resend", controller.ResendOTP)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, manager *lifecycle.Manager) {
	// Initialize controllers with their respective loggers
	collabController := controller.NewCollaborationController(db, log.New(os.Stdout, "COLLAB: ", log.LstdFlags), manager)
	negotiationController := controller.NewNegotiationController(db, log.New(os.Stdout, "NEGOTIATION: ", log.LstdFlags), manager)
	deliverableController := controller.NewDeliverableController(db, log.New(os.Stdout, "DELIVERABLE: ", log.LstdFlags), manager)
	paymentController := controller.NewPaymentController(db, log.New(os.Stdout, "PAYMENT: ", log.LstdFlags), manager)
	contractController := controller.NewContractController(db, log.New(os.Stdout, "CONTRACT: ", log.LstdFlags), manager)
	notificationController := controller.NewNotificationController(db, log.New(os.Stdout, "NOTIFICATION: ", log.LstdFlags))
	legendController := controller.NewLegendController(db, log.New(os.Stdout, "LEGEND: ", log.LstdFlags))
	podcastController := controller.NewPodcastController(db, log.New(os.Stdout, "PODCAST: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	adminController := controller.NewAdminController(db, log.New(os.Stdout, "ADMIN: ", log.LstdFlags), manager)

	// Webhooks come unauthenticated; each handler verifies its own
	// signature or shared secret.
	webhooks := app.Group("/webhooks")
	webhooks.Post("/stripe", paymentController.HandleStripeWebhook)
	webhooks.Post("/esign", contractController.HandleESignWebhook)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Marketplace browsing
	marketplace := api.Group("/marketplace")
	marketplace.Get("/legends", legendController.Browse)
	marketplace.Get("/legends/:id", legendController.GetProfile)
	marketplace.Get("/podcasts", podcastController.Browse)
	marketplace.Get("/podcasts/:id", podcastController.GetPodcast)

	// Legend profile and services
	legends := api.Group("/legends")
	legends.Put("/profile", legendController.UpsertProfile)
	legends.Post("/avatar", legendController.UploadAvatar)
	legends.Post("/services", legendController.CreateService)
	legends.Put("/services/:id", legendController.UpdateService)
	legends.Delete("/services/:id", legendController.DeactivateService)

	// Podcast management
	podcasts := api.Group("/podcasts")
	podcasts.Get("/mine", podcastController.GetMyPodcasts)
	podcasts.Post("/", podcastController.CreatePodcast)
	podcasts.Put("/:id", podcastController.UpdatePodcast)
	podcasts.Post("/:id/cover", podcastController.UploadCover)

	// Collaboration lifecycle
	collabs := api.Group("/collaborations")
	collabs.Post("/", middleware.PitchRateLimiter(), collabController.CreatePitch)
	collabs.Get("/", collabController.GetCollaborations)
	collabs.Get("/:id", collabController.GetCollaboration)
	collabs.Post("/:id/accept", collabController.Accept)
	collabs.Post("/:id/decline", collabController.Decline)
	collabs.Post("/:id/complete", collabController.MarkComplete)
	collabs.Post("/:id/recorded", collabController.MarkRecorded)
	collabs.Get("/:id/contract", collabController.GetContract)

	// Negotiation sub-flow for guest appearances
	collabs.Post("/:id/offers", negotiationController.CounterOffer)
	collabs.Post("/:id/offers/accept", negotiationController.AcceptOffer)
	collabs.Get("/:id/offers", negotiationController.GetHistory)

	// Deliverables
	collabs.Post("/:id/deliverables", deliverableController.Upload)
	collabs.Get("/:id/deliverables", deliverableController.List)

	// Payments
	collabs.Post("/:id/pay", paymentController.CreatePaymentIntent)
	collabs.Get("/:id/transactions", paymentController.GetTransactions)

	// Notifications
	notifications := api.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Post("/read-all", notificationController.MarkAllRead)
	notifications.Post("/:id/read", notificationController.MarkRead)
	notifications.Delete("/:id", notificationController.DeleteNotification)

	// Dashboard
	dashboard := api.Group("/dashboard")
	dashboard.Get("/", dashboardController.GetDashboard)
	dashboard.Get("/earnings", dashboardController.GetEarnings)

	// Admin
	admin := api.Group("/admin", middleware.AdminOnly())
	admin.Get("/stats", adminController.GetPlatformStats)
	admin.Get("/users", adminController.GetUsers)
	admin.Post("/users/:id/active", adminController.SetUserActive)
	admin.Post("/legends/:id/verify", adminController.SetLegendVerified)
	admin.Get("/collaborations", adminController.GetCollaborations)
	admin.Post("/collaborations/:id/decline", adminController.DeclineCollaboration)
	admin.Get("/settings", adminController.GetSettings)
	admin.Put("/settings/:key", adminController.UpdateSetting)

	// Websocket badge feed. The upgrade check runs after Protected(),
	// so the user is already resolved.
	api.Use("/ws/notifications", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/notifications", func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)
		return websocket.New(ws.HandleNotificationSocket(user.ID))(c)
	})
}
