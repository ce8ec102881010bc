package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"uvocollab/models"
	"uvocollab/utils"
)

type LegendController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewLegendController(db *gorm.DB, logger *log.Logger) *LegendController {
	return &LegendController{DB: db, Logger: logger}
}

type UpsertLegendProfileRequest struct {
	Headline     string `json:"headline" validate:"required,max=200"`
	Bio          string `json:"bio"`
	Category     string `json:"category" validate:"required,max=50"`
	Location     string `json:"location" validate:"omitempty,max=100"`
	CreditsLine  string `json:"credits_line" validate:"omitempty,max=200"`
	WebsiteURL   string `json:"website_url" validate:"omitempty,url"`
	InstagramURL string `json:"instagram_url" validate:"omitempty,url"`
	SpotifyURL   string `json:"spotify_url" validate:"omitempty,url"`
}

// UpsertProfile creates or updates the caller's Legend profile.
// Verification is an admin action and is never touched here.
func (lc *LegendController) UpsertProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if user.Role != models.RoleLegend {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only Legend accounts can publish a profile",
		})
	}

	var req UpsertLegendProfileRequest
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

	var profile models.LegendProfile
	err := lc.DB.Where("user_id = ?", user.ID).First(&profile).Error
	created := err == gorm.ErrRecordNotFound

	profile.UserID = user.ID
	profile.Headline = req.Headline
	profile.Bio = req.Bio
	profile.Category = req.Category
	profile.Location = req.Location
	profile.CreditsLine = req.CreditsLine
	profile.WebsiteURL = req.WebsiteURL
	profile.InstagramURL = req.InstagramURL
	profile.SpotifyURL = req.SpotifyURL

	if err := lc.DB.Save(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save profile",
		})
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(profile)
}

// GetProfile returns a Legend profile with its active services.
func (lc *LegendController) GetProfile(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid profile id",
		})
	}

	var profile models.LegendProfile
	if err := lc.DB.Preload("User").
		Preload("Services", "active = ?", true).
		First(&profile, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}

	return c.JSON(profile)
}

// Browse is the public marketplace listing. Only verified profiles are
// shown; filters are optional.
func (lc *LegendController) Browse(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := lc.DB.Model(&models.LegendProfile{}).
		Where("verified = ?", true).
		Preload("User").
		Preload("Services", "active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("headline ILIKE ? OR bio ILIKE ? OR credits_line ILIKE ?", like, like, like)
	}
	if c.Query("featured") == "true" {
		query = query.Where("featured = ?", true)
	}
	// Price filters match profiles with at least one active service in
	// range
	if minPrice := c.QueryInt("min_price_cents", 0); minPrice > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM services WHERE services.legend_id = legend_profiles.id AND services.active = ? AND services.price_cents >= ?)",
			true, minPrice)
	}
	if maxPrice := c.QueryInt("max_price_cents", 0); maxPrice > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM services WHERE services.legend_id = legend_profiles.id AND services.active = ? AND services.price_cents <= ?)",
			true, maxPrice)
	}

	var total int64
	query.Count(&total)

	var profiles []models.LegendProfile
	if err := query.Order("featured DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&profiles).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch marketplace listings",
		})
	}

	return c.JSON(fiber.Map{
		"legends": profiles,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

type UpsertServiceRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	PriceCents   int64  `json:"price_cents" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
	DeliveryDays int    `json:"delivery_days" validate:"omitempty,gt=0"`
}

func (lc *LegendController) CreateService(c *fiber.Ctx) error {
	profile, fiberErr := lc.ownProfile(c)
	if fiberErr != nil {
		return fiberErr
	}

	var req UpsertServiceRequest
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

	service := models.Service{
		LegendID:     profile.ID,
		Title:        req.Title,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		Currency:     defaultCurrency(req.Currency),
		DeliveryDays: req.DeliveryDays,
		Active:       true,
	}
	if service.DeliveryDays == 0 {
		service.DeliveryDays = 14
	}

	if err := lc.DB.Create(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create service",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(service)
}

func (lc *LegendController) UpdateService(c *fiber.Ctx) error {
	profile, fiberErr := lc.ownProfile(c)
	if fiberErr != nil {
		return fiberErr
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid service id",
		})
	}

	var service models.Service
	if err := lc.DB.Where("id = ? AND legend_id = ?", id, profile.ID).
		First(&service).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Service not found",
		})
	}

	var req UpsertServiceRequest
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

	service.Title = req.Title
	service.Description = req.Description
	service.PriceCents = req.PriceCents
	service.Currency = defaultCurrency(req.Currency)
	if req.DeliveryDays > 0 {
		service.DeliveryDays = req.DeliveryDays
	}

	if err := lc.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update service",
		})
	}

	return c.JSON(service)
}

// DeactivateService hides a listing. Existing collaborations keep the
// price they were pitched at.
func (lc *LegendController) DeactivateService(c *fiber.Ctx) error {
	profile, fiberErr := lc.ownProfile(c)
	if fiberErr != nil {
		return fiberErr
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid service id",
		})
	}

	result := lc.DB.Model(&models.Service{}).
		Where("id = ? AND legend_id = ?", id, profile.ID).
		Update("active", false)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to deactivate service",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Service not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Service deactivated"})
}

// UploadAvatar stores a profile picture on the caller's user record.
func (lc *LegendController) UploadAvatar(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file is required",
		})
	}
	if fileHeader.Size > 5<<20 {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Avatar exceeds the 5MB limit",
		})
	}

	url, err := utils.UploadAvatar(fileHeader, uuid.New().String())
	if err != nil {
		lc.Logger.Printf("avatar upload failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to store avatar",
		})
	}

	if err := lc.DB.Model(user).Update("avatar_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save avatar",
		})
	}

	return c.JSON(fiber.Map{"avatar_url": url})
}

func (lc *LegendController) ownProfile(c *fiber.Ctx) (*models.LegendProfile, error) {
	user := c.Locals("user").(*models.User)

	var profile models.LegendProfile
	if err := lc.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Create a Legend profile first",
		})
	}
	return &profile, nil
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "usd"
	}
	return currency
}
