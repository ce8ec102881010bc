package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

type NegotiationController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewNegotiationController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *NegotiationController {
	return &NegotiationController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

type CounterOfferRequest struct {
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	Topics       string `json:"topics"`
	ProposedDate string `json:"proposed_date"`
	Message      string `json:"message" validate:"required"`
}

// CounterOffer appends to the negotiation thread of a guest-appearance
// collaboration. The status stays at pending_agreement.
func (nc *NegotiationController) CounterOffer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	var req CounterOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	input := lifecycle.OfferInput{
		PriceCents: req.PriceCents,
		Topics:     req.Topics,
		Message:    req.Message,
	}
	if req.ProposedDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.ProposedDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "proposed_date must be RFC 3339",
			})
		}
		input.ProposedDate = &parsed
	}

	entry, err := nc.Manager.CounterOffer(actorFrom(c), uint(id), input)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Counter-offer sent",
		"offer":   entry,
	})
}

// AcceptOffer locks in the latest terms. Paid appearances move on to
// payment, free ones go straight to scheduling.
func (nc *NegotiationController) AcceptOffer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := nc.Manager.AcceptOffer(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Offer accepted",
		"collaboration": collab,
	})
}

// GetHistory returns the full negotiation thread, oldest first.
func (nc *NegotiationController) GetHistory(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	// Party check happens in Get; the thread itself is not filtered.
	if _, err := nc.Manager.Get(actorFrom(c), uint(id)); err != nil {
		return lifecycleError(c, err)
	}

	var entries []models.NegotiationEntry
	if err := nc.DB.Where("collaboration_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch negotiation history",
		})
	}

	return c.JSON(entries)
}
