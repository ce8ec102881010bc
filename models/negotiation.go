package models

import (
	"time"

	"gorm.io/gorm"
)

// NegotiationEntry is one counter-offer in the podcast guest sub-flow.
// The history is strictly append-only and ordered by creation; each
// entry's price/topics/date become the baseline the next entry counters.
type NegotiationEntry struct {
	gorm.Model
	CollaborationID uint `gorm:"not null;index" json:"collaboration_id"`
	ProposerID      uint `gorm:"not null" json:"proposer_id"`

	PriceCents   int64      `gorm:"not null" json:"price_cents"`
	Topics       string     `json:"topics"`
	ProposedDate *time.Time `json:"proposed_date,omitempty"`
	Message      string     `gorm:"type:text;not null" json:"message"`

	Collaboration Collaboration `json:"-"`
}
