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

type AdminController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewAdminController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *AdminController {
	return &AdminController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

// GetPlatformStats aggregates marketplace-wide numbers for the admin
// dashboard: GMV, commission earned, and the status distribution.
func (ac *AdminController) GetPlatformStats(c *fiber.Ctx) error {
	var userCount, legendCount, podcastCount, signups30d int64
	ac.DB.Model(&models.User{}).Count(&userCount)
	ac.DB.Model(&models.User{}).Where("created_at >= ?", time.Now().AddDate(0, 0, -30)).Count(&signups30d)
	ac.DB.Model(&models.LegendProfile{}).Where("verified = ?", true).Count(&legendCount)
	ac.DB.Model(&models.Podcast{}).Count(&podcastCount)

	var byStatus []statusCount
	if err := ac.DB.Model(&models.Collaboration{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load platform stats",
		})
	}

	// GMV counts captured payments only
	var gmvCents, commissionCents int64
	ac.DB.Model(&models.Collaboration{}).
		Where("paid_at IS NOT NULL").
		Select("COALESCE(SUM(price_cents), 0)").
		Scan(&gmvCents)
	ac.DB.Model(&models.Collaboration{}).
		Where("paid_at IS NOT NULL").
		Select("COALESCE(SUM(platform_fee_cents), 0)").
		Scan(&commissionCents)

	var pendingPayouts int64
	ac.DB.Model(&models.Collaboration{}).
		Where("status = ? AND payout_released_at IS NULL", models.StatusCompleted).
		Count(&pendingPayouts)

	return c.JSON(fiber.Map{
		"users":            userCount,
		"signups_30d":      signups30d,
		"verified_legends": legendCount,
		"podcasts":         podcastCount,
		"by_status":        byStatus,
		"gmv_cents":        gmvCents,
		"commission_cents": commissionCents,
		"pending_payouts":  pendingPayouts,
	})
}

func (ac *AdminController) GetUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := ac.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("email ILIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// SetUserActive deactivates or reinstates an account. Deactivation
// bumps the token version so existing sessions die immediately.
func (ac *AdminController) SetUserActive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := ac.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	updates := map[string]interface{}{"is_active": req.Active}
	if !req.Active {
		updates["token_version"] = gorm.Expr("token_version + 1")
	}
	if err := ac.DB.Model(&user).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	utils.LogEvent("admin_user_active_changed", map[string]interface{}{
		"admin_id": c.Locals("user").(*models.User).ID,
		"user_id":  user.ID,
		"active":   req.Active,
	})

	return c.JSON(fiber.Map{"message": "User updated"})
}

// SetLegendVerified toggles marketplace visibility for a profile.
func (ac *AdminController) SetLegendVerified(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid profile id",
		})
	}

	var req struct {
		Verified bool `json:"verified"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result := ac.DB.Model(&models.LegendProfile{}).
		Where("id = ?", id).
		Update("verified", req.Verified)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Profile updated"})
}

// GetCollaborations lists every collaboration, regardless of parties.
func (ac *AdminController) GetCollaborations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := ac.DB.Model(&models.Collaboration{}).
		Preload("Buyer").Preload("Payee")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var collabs []models.Collaboration
	if err := query.Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&collabs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch collaborations",
		})
	}

	return c.JSON(fiber.Map{
		"collaborations": collabs,
		"total":          total,
		"limit":          limit,
		"offset":         offset,
	})
}

// DeclineCollaboration is the admin override for stuck or disputed
// collaborations. It runs through the same transition checks as a
// party decline.
func (ac *AdminController) DeclineCollaboration(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	var req DeclineRequest
	if err := c.BodyParser(&req); err != nil {
		req.Reason = ""
	}

	collab, err := ac.Manager.Decline(actorFrom(c), uint(id), req.Reason)
	if err != nil {
		return lifecycleError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Collaboration declined",
		"collaboration": collab,
	})
}

func (ac *AdminController) GetSettings(c *fiber.Ctx) error {
	var settings []models.PlatformSetting
	if err := ac.DB.Order("key ASC").Find(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch settings",
		})
	}
	return c.JSON(settings)
}

func (ac *AdminController) UpdateSetting(c *fiber.Ctx) error {
	key := c.Params("key")

	var req struct {
		Value string `json:"value" validate:"required"`
	}
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

	result := ac.DB.Model(&models.PlatformSetting{}).
		Where("key = ?", key).
		Update("value", req.Value)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update setting",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Setting not found",
		})
	}

	utils.LogEvent("admin_setting_changed", map[string]interface{}{
		"admin_id": c.Locals("user").(*models.User).ID,
		"key":      key,
	})

	return c.JSON(fiber.Map{"message": "Setting updated"})
}
