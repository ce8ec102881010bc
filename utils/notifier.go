package utils

import (
	"gorm.io/gorm"

	"uvocollab/models"
	"uvocollab/ws"
)

// DBNotifier persists notifications and pushes the new unread count to
// the recipient's badge socket. It satisfies lifecycle.Notifier.
type DBNotifier struct {
	DB *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{DB: db}
}

func (n *DBNotifier) Notify(userID uint, collabID uint, notifType, title, message, actionURL string) error {
	notification := models.Notification{
		UserID:          userID,
		Type:            notifType,
		Title:           title,
		Message:         message,
		ActionURL:       actionURL,
		CollaborationID: &collabID,
	}
	if err := n.DB.Create(&notification).Error; err != nil {
		return err
	}

	var unread int64
	n.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)
	ws.SendBadgeUpdate(userID, unread)

	return nil
}
