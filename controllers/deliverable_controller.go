package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

// Deliverable uploads are capped well below Supabase's object limit.
const maxDeliverableBytes = 100 << 20

type DeliverableController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewDeliverableController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *DeliverableController {
	return &DeliverableController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

// Upload stores the file in the bucket, then records it against the
// collaboration. The manager enforces who may upload and when.
func (dc *DeliverableController) Upload(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file is required",
		})
	}
	if fileHeader.Size > maxDeliverableBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File exceeds the 100MB limit",
		})
	}

	// Cheap pre-check before paying for the upload. The manager redoes
	// it atomically when the row is written.
	collab, err := dc.Manager.Get(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	if collab.Status != models.StatusInProgress {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Deliverables can only be uploaded while the collaboration is in progress",
		})
	}

	fileID := uuid.New().String()
	fileURL, err := utils.UploadDeliverable(fileHeader, uint(id), fileID)
	if err != nil {
		dc.Logger.Printf("deliverable upload failed for collab %d: %v", id, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to store file",
		})
	}

	deliverable, err := dc.Manager.AddDeliverable(actorFrom(c), uint(id), lifecycle.DeliverableInput{
		FileName:    fileHeader.Filename,
		FileURL:     fileURL,
		ContentType: fileHeader.Header.Get("Content-Type"),
		SizeBytes:   fileHeader.Size,
		Note:        c.FormValue("note"),
	})
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Deliverable uploaded",
		"deliverable": deliverable,
	})
}

// List returns the deliverables of a collaboration the caller is a
// party to.
func (dc *DeliverableController) List(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	if _, err := dc.Manager.Get(actorFrom(c), uint(id)); err != nil {
		return lifecycleError(c, err)
	}

	var deliverables []models.Deliverable
	if err := dc.DB.Where("collaboration_id = ?", id).
		Order("created_at ASC").
		Find(&deliverables).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch deliverables",
		})
	}

	return c.JSON(deliverables)
}
