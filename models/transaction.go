package models

import "gorm.io/gorm"

// PaymentTransaction records money movement for a collaboration:
// the buyer's escrow funding and the later payout release.
type PaymentTransaction struct {
	gorm.Model
	CollaborationID uint `gorm:"not null;index" json:"collaboration_id"`
	PayerID         uint `gorm:"not null;index" json:"payer_id"`
	PayeeID         uint `gorm:"not null;index" json:"payee_id"`

	// Financial information, amounts in cents
	AmountCents      int64  `gorm:"not null" json:"amount_cents"`
	PlatformFeeCents int64  `gorm:"default:0" json:"platform_fee_cents"`
	Currency         string `gorm:"default:'usd'" json:"currency"`
	PaymentStatus    string `gorm:"default:'pending'" json:"payment_status"` // pending, completed, failed, refunded

	// Metadata
	Description string `json:"description"`

	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id,omitempty"`
	StripeChargeID        string `json:"stripe_charge_id,omitempty"`
	StripeTransferID      string `json:"stripe_transfer_id,omitempty"`
	ReceiptURL            string `json:"receipt_url,omitempty"`

	// Relations
	Collaboration Collaboration `json:"-"`
	Payer         User          `gorm:"foreignKey:PayerID" json:"-"`
	Payee         User          `gorm:"foreignKey:PayeeID" json:"-"`
}
