package controller

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"uvocollab/config"
	"uvocollab/lifecycle"
	"uvocollab/models"
)

type ContractController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewContractController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *ContractController {
	return &ContractController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

type esignWebhookPayload struct {
	EnvelopeID string `json:"envelope_id"`
	Status     string `json:"status"`
}

// HandleESignWebhook moves a collaboration into in_progress once the
// signature provider reports the envelope completed. The provider
// authenticates with a shared secret header.
func (cc *ContractController) HandleESignWebhook(c *fiber.Ctx) error {
	secret := config.AppConfig.ESignWebhookSecret
	given := c.Get("X-Webhook-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook secret",
		})
	}

	var payload esignWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.EnvelopeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	if payload.Status != "completed" {
		// Intermediate envelope events (sent, viewed, partially signed)
		// are acknowledged but don't move the collaboration.
		return c.JSON(fiber.Map{"received": true})
	}

	var collab models.Collaboration
	if err := cc.DB.Where("envelope_id = ?", payload.EnvelopeID).First(&collab).Error; err != nil {
		cc.Logger.Printf("esign webhook for unknown envelope %s", payload.EnvelopeID)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown envelope",
		})
	}

	if _, err := cc.Manager.MarkContractsSigned(collab.ID, payload.EnvelopeID); err != nil {
		// Replays land here once the status has moved past awaiting_contract
		if errorIsTerminalForWebhook(err) {
			return c.JSON(fiber.Map{"received": true})
		}
		cc.Logger.Printf("failed to mark contracts signed for collab %d: %v", collab.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record signatures",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
