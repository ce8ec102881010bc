package models

import "gorm.io/gorm"

// Podcast is a show owned by a podcaster user; guest-appearance
// collaborations reference it alongside the guest expert.
type Podcast struct {
	gorm.Model
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"index" json:"category"`
	CoverURL    string `json:"cover_url"`
	RSSFeedURL  string `json:"rss_feed_url"`

	// Shown to prospective guests when pitching
	AudienceSize    int    `gorm:"default:0" json:"audience_size"`
	EpisodeCadence  string `json:"episode_cadence"` // weekly, biweekly, monthly
	AcceptingGuests bool   `gorm:"default:true;index" json:"accepting_guests"`

	Owner User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
