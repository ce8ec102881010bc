package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"uvocollab/models"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{DB: db, Logger: logger}
}

type statusCount struct {
	Status models.CollaborationStatus `json:"status"`
	Count  int64                      `json:"count"`
}

// GetDashboard summarizes the caller's activity: open and finished
// collaborations, money spent as buyer and earned as payee.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var byStatus []statusCount
	if err := dc.DB.Model(&models.Collaboration{}).
		Select("status, COUNT(*) AS count").
		Where("buyer_id = ? OR payee_id = ?", user.ID, user.ID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	var active, completed int64
	for _, sc := range byStatus {
		if sc.Status.IsTerminal() {
			if sc.Status == models.StatusCompleted {
				completed += sc.Count
			}
		} else {
			active += sc.Count
		}
	}

	// Spent: captured payments where the user was the buyer
	var spentCents int64
	dc.DB.Model(&models.Collaboration{}).
		Where("buyer_id = ? AND paid_at IS NOT NULL", user.ID).
		Select("COALESCE(SUM(price_cents), 0)").
		Scan(&spentCents)

	// Earned: only funds actually released to the payee count
	var earnedCents int64
	dc.DB.Model(&models.Collaboration{}).
		Where("payee_id = ? AND payout_released_at IS NOT NULL", user.ID).
		Select("COALESCE(SUM(payee_amount_cents), 0)").
		Scan(&earnedCents)

	// Pending earnings: paid but not yet released
	var pendingCents int64
	dc.DB.Model(&models.Collaboration{}).
		Where("payee_id = ? AND paid_at IS NOT NULL AND payout_released_at IS NULL AND status <> ?",
			user.ID, models.StatusDeclined).
		Select("COALESCE(SUM(payee_amount_cents), 0)").
		Scan(&pendingCents)

	var recent []models.Collaboration
	dc.DB.Preload("Buyer").Preload("Payee").
		Where("buyer_id = ? OR payee_id = ?", user.ID, user.ID).
		Order("updated_at DESC").
		Limit(5).
		Find(&recent)

	var unread int64
	dc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"active_collaborations":    active,
		"completed_collaborations": completed,
		"by_status":                byStatus,
		"spent_cents":              spentCents,
		"earned_cents":             earnedCents,
		"pending_earnings_cents":   pendingCents,
		"recent_collaborations":    recent,
		"unread_notifications":     unread,
	})
}

// GetEarnings breaks a payee's income down per collaboration.
func (dc *DashboardController) GetEarnings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var collabs []models.Collaboration
	if err := dc.DB.Preload("Buyer").
		Where("payee_id = ? AND paid_at IS NOT NULL", user.ID).
		Order("paid_at DESC").
		Find(&collabs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load earnings",
		})
	}

	type earningRow struct {
		CollaborationID  uint   `json:"collaboration_id"`
		Title            string `json:"title"`
		PayeeAmountCents int64  `json:"payee_amount_cents"`
		Currency         string `json:"currency"`
		Released         bool   `json:"released"`
	}

	rows := make([]earningRow, 0, len(collabs))
	var totalReleased, totalPending int64
	for _, cl := range collabs {
		released := cl.PayoutReleasedAt != nil
		if released {
			totalReleased += cl.PayeeAmountCents
		} else if cl.Status != models.StatusDeclined {
			totalPending += cl.PayeeAmountCents
		}
		rows = append(rows, earningRow{
			CollaborationID:  cl.ID,
			Title:            cl.Title,
			PayeeAmountCents: cl.PayeeAmountCents,
			Currency:         cl.Currency,
			Released:         released,
		})
	}

	return c.JSON(fiber.Map{
		"earnings":             rows,
		"total_released_cents": totalReleased,
		"total_pending_cents":  totalPending,
	})
}
