package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

type CollaborationController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewCollaborationController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *CollaborationController {
	return &CollaborationController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

// lifecycleError maps the manager's error taxonomy onto HTTP statuses.
func lifecycleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, lifecycle.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, lifecycle.ErrInvalidState), errors.Is(err, lifecycle.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, lifecycle.ErrPreconditionFailed):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, lifecycle.ErrUpstreamFailure):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func actorFrom(c *fiber.Ctx) lifecycle.Actor {
	user := c.Locals("user").(*models.User)
	return lifecycle.Actor{UserID: user.ID, Role: user.Role}
}

type CreatePitchRequest struct {
	Type         string `json:"type" validate:"required,oneof=standard podcast"`
	PayeeID      uint   `json:"payee_id" validate:"required"`
	PodcastID    *uint  `json:"podcast_id"`
	ServiceID    *uint  `json:"service_id"`
	Title        string `json:"title" validate:"required,max=200"`
	Brief        string `json:"brief" validate:"required"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
	Topics       string `json:"topics"`
	ProposedDate string `json:"proposed_date"` // RFC 3339
	Message      string `json:"message"`
}

// CreatePitch opens a collaboration. For standard pitches against a
// listed service the price is taken from the service, not the request.
func (cc *CollaborationController) CreatePitch(c *fiber.Ctx) error {
	var req CreatePitchRequest
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

	input := lifecycle.PitchInput{
		Type:       req.Type,
		PayeeID:    req.PayeeID,
		PodcastID:  req.PodcastID,
		ServiceID:  req.ServiceID,
		Title:      req.Title,
		Brief:      req.Brief,
		PriceCents: req.PriceCents,
		Currency:   req.Currency,
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

	if req.Type == models.CollabTypeStandard && req.ServiceID != nil {
		var service models.Service
		if err := cc.DB.First(&service, *req.ServiceID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Service not found",
			})
		}
		if !service.Active {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Service is no longer offered",
			})
		}
		input.PriceCents = service.PriceCents
		input.Currency = service.Currency
	}

	if req.Type == models.CollabTypePodcast {
		if req.PodcastID == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "podcast_id is required for guest-appearance pitches",
			})
		}
		var podcast models.Podcast
		if err := cc.DB.First(&podcast, *req.PodcastID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Podcast not found",
			})
		}
	}

	collab, err := cc.Manager.SubmitPitch(actorFrom(c), input)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Pitch submitted successfully",
		"collaboration": collab,
	})
}

// GetCollaborations lists everything the caller is a party to.
func (cc *CollaborationController) GetCollaborations(c *fiber.Ctx) error {
	collabs, err := cc.Manager.List(actorFrom(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch collaborations",
		})
	}
	return c.JSON(collabs)
}

func (cc *CollaborationController) GetCollaboration(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := cc.Manager.Get(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(collab)
}

// Accept: Legend accepts a standard pitch.
func (cc *CollaborationController) Accept(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := cc.Manager.Accept(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Pitch accepted",
		"collaboration": collab,
	})
}

type DeclineRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

func (cc *CollaborationController) Decline(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	var req DeclineRequest
	if err := c.BodyParser(&req); err != nil {
		// An empty body is fine, a reason is optional
		req.Reason = ""
	}

	collab, err := cc.Manager.Decline(actorFrom(c), uint(id), req.Reason)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Collaboration declined",
		"collaboration": collab,
	})
}

// MarkComplete releases the work and queues the payout.
func (cc *CollaborationController) MarkComplete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := cc.Manager.MarkComplete(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Collaboration completed",
		"collaboration": collab,
	})
}

// MarkRecorded confirms a scheduled guest appearance was recorded.
func (cc *CollaborationController) MarkRecorded(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := cc.Manager.ScheduleRecorded(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Appearance recorded",
		"collaboration": collab,
	})
}

// GetContract returns the signature envelope details for a party.
func (cc *CollaborationController) GetContract(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	collab, err := cc.Manager.Get(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	if collab.EnvelopeID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No contract has been generated yet",
		})
	}

	return c.JSON(fiber.Map{
		"envelope_id":      collab.EnvelopeID,
		"contract_url":     collab.ContractURL,
		"contract_sent_at": collab.ContractSentAt,
		"signed_at":        collab.AllPartiesSignedAt,
	})
}
