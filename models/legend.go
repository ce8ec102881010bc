package models

import "gorm.io/gorm"

// LegendProfile holds the public marketplace profile of a verified
// industry professional offering paid collaborations.
type LegendProfile struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`

	Headline string `gorm:"not null" json:"headline"`
	Bio      string `gorm:"type:text" json:"bio"`
	Category string `gorm:"index" json:"category"` // producer, mixing, songwriting, vocal, marketing, etc.
	Location string `json:"location"`

	// Verification gate for marketplace visibility
	Verified   bool `gorm:"default:false;index" json:"verified"`
	Featured   bool `gorm:"default:false" json:"featured"`

	// Social proof shown on the profile card
	CreditsLine   string `json:"credits_line"` // e.g. "Grammy-winning mixing engineer"
	WebsiteURL    string `json:"website_url"`
	InstagramURL  string `json:"instagram_url"`
	SpotifyURL    string `json:"spotify_url"`

	// Payout destination for released funds
	StripeAccountID *string `gorm:"index" json:"stripe_account_id,omitempty"`

	// Relations
	User     User      `json:"user,omitempty"`
	Services []Service `gorm:"foreignKey:LegendID" json:"services,omitempty"`
}

// Service is a purchasable offering listed under a Legend profile
type Service struct {
	gorm.Model
	LegendID uint `gorm:"not null;index" json:"legend_id"`

	Title        string `gorm:"not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	PriceCents   int64  `gorm:"not null" json:"price_cents"`
	Currency     string `gorm:"default:'usd'" json:"currency"`
	DeliveryDays int    `gorm:"default:14" json:"delivery_days"`
	Active       bool   `gorm:"default:true;index" json:"active"`

	Legend LegendProfile `gorm:"foreignKey:LegendID" json:"-"`
}
