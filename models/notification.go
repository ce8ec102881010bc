package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types used by the lifecycle manager
const (
	NotifPitchReceived     = "pitch_received"
	NotifCounterOffer      = "counter_offer"
	NotifCollabAccepted    = "collab_accepted"
	NotifCollabDeclined    = "collab_declined"
	NotifPaymentCaptured   = "payment_captured"
	NotifPaymentFailed     = "payment_failed"
	NotifContractReady     = "contract_ready"
	NotifContractSigned    = "contract_signed"
	NotifDeliverableAdded  = "deliverable_added"
	NotifCollabCompleted   = "collab_completed"
	NotifPayoutReleased    = "payout_released"
	NotifPayoutBlocked     = "payout_blocked"
)

// Notification is persisted for polling delivery; the websocket badge
// hub only pushes unread counts, never the payload.
type Notification struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	Type      string `gorm:"not null;index" json:"type"`
	Title     string `gorm:"not null" json:"title"`
	Message   string `gorm:"type:text;not null" json:"message"`
	ActionURL string `json:"action_url,omitempty"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CollaborationID *uint `gorm:"index" json:"collaboration_id,omitempty"`

	User User `json:"-"`
}
