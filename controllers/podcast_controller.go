package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"uvocollab/models"
	"uvocollab/utils"
)

type PodcastController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPodcastController(db *gorm.DB, logger *log.Logger) *PodcastController {
	return &PodcastController{DB: db, Logger: logger}
}

type UpsertPodcastRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	Category        string `json:"category" validate:"omitempty,max=50"`
	RSSFeedURL      string `json:"rss_feed_url" validate:"omitempty,url"`
	AudienceSize    int    `json:"audience_size" validate:"gte=0"`
	EpisodeCadence  string `json:"episode_cadence" validate:"omitempty,oneof=weekly biweekly monthly irregular"`
	AcceptingGuests *bool  `json:"accepting_guests"`
}

func (pc *PodcastController) CreatePodcast(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.Role != models.RolePodcaster && !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only podcaster accounts can list a show",
		})
	}

	var req UpsertPodcastRequest
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

	podcast := models.Podcast{
		OwnerID:         user.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		RSSFeedURL:      req.RSSFeedURL,
		AudienceSize:    req.AudienceSize,
		EpisodeCadence:  req.EpisodeCadence,
		AcceptingGuests: true,
	}
	if req.AcceptingGuests != nil {
		podcast.AcceptingGuests = *req.AcceptingGuests
	}

	if err := pc.DB.Create(&podcast).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create podcast",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(podcast)
}

func (pc *PodcastController) UpdatePodcast(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid podcast id",
		})
	}

	var podcast models.Podcast
	if err := pc.DB.Where("id = ? AND owner_id = ?", id, user.ID).
		First(&podcast).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Podcast not found",
		})
	}

	var req UpsertPodcastRequest
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

	podcast.Title = req.Title
	podcast.Description = req.Description
	podcast.Category = req.Category
	podcast.RSSFeedURL = req.RSSFeedURL
	podcast.AudienceSize = req.AudienceSize
	podcast.EpisodeCadence = req.EpisodeCadence
	if req.AcceptingGuests != nil {
		podcast.AcceptingGuests = *req.AcceptingGuests
	}

	if err := pc.DB.Save(&podcast).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update podcast",
		})
	}

	return c.JSON(podcast)
}

func (pc *PodcastController) GetPodcast(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid podcast id",
		})
	}

	var podcast models.Podcast
	if err := pc.DB.Preload("Owner").First(&podcast, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Podcast not found",
		})
	}

	return c.JSON(podcast)
}

// GetMyPodcasts lists every show owned by the caller, including ones
// not currently accepting guests.
func (pc *PodcastController) GetMyPodcasts(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var podcasts []models.Podcast
	if err := pc.DB.Where("owner_id = ?", user.ID).
		Order("created_at DESC").
		Find(&podcasts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch podcasts",
		})
	}

	return c.JSON(podcasts)
}

// Browse lists shows that are open to guest pitches.
func (pc *PodcastController) Browse(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := pc.DB.Model(&models.Podcast{}).
		Where("accepting_guests = ?", true).
		Preload("Owner")

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var podcasts []models.Podcast
	if err := query.Order("audience_size DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&podcasts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch podcasts",
		})
	}

	return c.JSON(fiber.Map{
		"podcasts": podcasts,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (pc *PodcastController) UploadCover(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid podcast id",
		})
	}

	var podcast models.Podcast
	if err := pc.DB.Where("id = ? AND owner_id = ?", id, user.ID).
		First(&podcast).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Podcast not found",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file is required",
		})
	}
	if fileHeader.Size > 5<<20 {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Cover exceeds the 5MB limit",
		})
	}

	url, err := utils.UploadPodcastCover(fileHeader, uuid.New().String())
	if err != nil {
		pc.Logger.Printf("cover upload failed for podcast %d: %v", podcast.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to store cover",
		})
	}

	if err := pc.DB.Model(&podcast).Update("cover_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save cover",
		})
	}

	return c.JSON(fiber.Map{"cover_url": url})
}
