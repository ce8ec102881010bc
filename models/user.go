package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleArtist    = "artist"
	RolePodcaster = "podcaster"
	RoleGuest     = "guest"
	RoleLegend    = "legend"
	RoleAdmin     = "admin"
)

// User represents an account on the platform
type User struct {
	gorm.Model

	// Authentication fields
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	EmailVerified bool      `gorm:"default:false" json:"email_verified"`
	OTP           string    `json:"-"`
	OTPExpiresAt  time.Time `json:"-"`
	OTPVerified   bool      `gorm:"default:false" json:"-"`
	TokenVersion  int       `gorm:"default:0" json:"-"`

	// Google OAuth fields
	GoogleID       *string `gorm:"uniqueIndex" json:"google_id,omitempty"`
	GoogleImageURL *string `json:"google_image_url,omitempty"`

	// Profile information
	Name      *string `json:"name,omitempty"`
	Role      string  `gorm:"default:'artist';index" json:"role"` // artist, podcaster, guest, legend, admin
	Headline  *string `json:"headline,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Timezone  string  `gorm:"default:'UTC'" json:"timezone"`
	Language  string  `gorm:"default:'en'" json:"language"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Stripe integration
	StripeCustomerID *string `gorm:"index" json:"stripe_customer_id,omitempty"`
	DefaultCurrency  string  `gorm:"default:'usd'" json:"default_currency"`

	// Relations
	LegendProfile      *LegendProfile `gorm:"foreignKey:UserID" json:"legend_profile,omitempty"`
	Podcasts           []Podcast      `gorm:"foreignKey:OwnerID" json:"podcasts,omitempty"`
	Notifications      []Notification `gorm:"foreignKey:UserID" json:"-"`
	BuyerCollabs       []Collaboration `gorm:"foreignKey:BuyerID" json:"-"`
	PayeeCollabs       []Collaboration `gorm:"foreignKey:PayeeID" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RefreshToken stores issued refresh tokens so sessions can be revoked
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	SessionID string    `gorm:"index" json:"session_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	User User `json:"-"`
}
