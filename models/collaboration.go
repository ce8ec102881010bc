package models

import (
	"time"

	"gorm.io/gorm"
)

// CollaborationStatus enumerates the lifecycle states. Transitions are
// enforced exclusively by the lifecycle package; nothing else writes
// the status column.
type CollaborationStatus string

const (
	StatusPendingReview    CollaborationStatus = "pending_review"
	StatusPendingAgreement CollaborationStatus = "pending_agreement"
	StatusPendingPayment   CollaborationStatus = "pending_payment"
	StatusAwaitingContract CollaborationStatus = "awaiting_contract"
	StatusScheduling       CollaborationStatus = "scheduling"
	StatusInProgress       CollaborationStatus = "in_progress"
	StatusCompleted        CollaborationStatus = "completed"
	StatusDeclined         CollaborationStatus = "declined"
)

// IsTerminal reports whether no further transitions are possible.
func (s CollaborationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusDeclined
}

// Collaboration types
const (
	CollabTypeStandard = "standard" // artist/podcaster buys a Legend service
	CollabTypePodcast  = "podcast"  // guest-appearance with negotiation sub-flow
)

// Collaboration is the central entity: a paid engagement between a
// buyer and a payee (Legend or podcast guest). Never hard-deleted;
// completed and declined rows are retained as historical record.
type Collaboration struct {
	gorm.Model

	Type   string              `gorm:"not null;index" json:"type"` // standard, podcast
	Status CollaborationStatus `gorm:"not null;default:'pending_review';index" json:"status"`

	// Parties. PayeeID is the Legend for standard collaborations and
	// the guest expert for podcast ones. PodcastID is set only for the
	// podcast type.
	BuyerID   uint  `gorm:"not null;index" json:"buyer_id"`
	PayeeID   uint  `gorm:"not null;index" json:"payee_id"`
	PodcastID *uint `gorm:"index" json:"podcast_id,omitempty"`
	ServiceID *uint `json:"service_id,omitempty"`

	// Pitch content
	Title string `gorm:"not null" json:"title"`
	Brief string `gorm:"type:text" json:"brief"`

	// Monetary breakdown in cents. The split is computed exactly once,
	// at payment capture, and never recomputed.
	PriceCents       int64  `gorm:"not null" json:"price_cents"`
	PlatformFeeCents int64  `gorm:"default:0" json:"platform_fee_cents"`
	PayeeAmountCents int64  `gorm:"default:0" json:"payee_amount_cents"`
	Currency         string `gorm:"default:'usd'" json:"currency"`

	// Podcast negotiation extras
	Topics       string     `json:"topics,omitempty"`
	ProposedDate *time.Time `json:"proposed_date,omitempty"`

	// External references
	StripePaymentIntentID string `gorm:"index" json:"stripe_payment_intent_id,omitempty"`
	EnvelopeID            string `gorm:"index" json:"envelope_id,omitempty"`
	ContractURL           string `json:"contract_url,omitempty"`

	DeclineReason string `json:"decline_reason,omitempty"`

	// Each timestamp is set once, on the transition that produces it
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	ContractSentAt     *time.Time `json:"contract_sent_at,omitempty"`
	AllPartiesSignedAt *time.Time `json:"all_parties_signed_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	PayoutReleasedAt   *time.Time `json:"payout_released_at,omitempty"`
	StripeTransferID   string     `json:"stripe_transfer_id,omitempty"`

	// Relations
	Buyer              User               `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Payee              User               `gorm:"foreignKey:PayeeID" json:"payee,omitempty"`
	Podcast            *Podcast           `gorm:"foreignKey:PodcastID" json:"podcast,omitempty"`
	Service            *Service           `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Deliverables       []Deliverable      `gorm:"foreignKey:CollaborationID" json:"deliverables,omitempty"`
	NegotiationHistory []NegotiationEntry `gorm:"foreignKey:CollaborationID" json:"negotiation_history,omitempty"`
}

// IsParty reports whether the given user id is the buyer or the payee.
func (cl *Collaboration) IsParty(userID uint) bool {
	return userID == cl.BuyerID || userID == cl.PayeeID
}

// Deliverable is a file delivered by the payee while the collaboration
// is in progress. Rows are append-only.
type Deliverable struct {
	gorm.Model
	CollaborationID uint `gorm:"not null;index" json:"collaboration_id"`
	UploaderID      uint `gorm:"not null" json:"uploader_id"`

	FileName    string `gorm:"not null" json:"file_name"`
	FileURL     string `gorm:"not null" json:"file_url"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Note        string `json:"note,omitempty"`

	Collaboration Collaboration `json:"-"`
}
