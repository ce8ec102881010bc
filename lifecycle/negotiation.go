package lifecycle

import (
	"fmt"
	"time"

	"uvocollab/models"
)

// OfferInput is one counter-offer in the guest-appearance flow. The
// message is mandatory; price/topics/date supersede the previous
// baseline.
type OfferInput struct {
	PriceCents   int64
	Topics       string
	ProposedDate *time.Time
	Message      string
}

// CounterOffer appends a negotiation entry. Either party may counter as
// often as they like while the collaboration sits in pending_agreement;
// the status does not move. Entries are never deduplicated: submitting
// the same offer twice records it twice.
func (m *Manager) CounterOffer(actor Actor, id uint, input OfferInput) (*models.NegotiationEntry, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if collab.Type != models.CollabTypePodcast {
		return nil, fmt.Errorf("%w: only guest-appearance collaborations are negotiable", ErrInvalidState)
	}
	if collab.Status != models.StatusPendingAgreement {
		return nil, fmt.Errorf("%w: negotiation is closed once the collaboration leaves pending_agreement", ErrInvalidState)
	}
	if !collab.IsParty(actor.UserID) {
		return nil, ErrUnauthorized
	}
	if input.Message == "" {
		return nil, fmt.Errorf("%w: a message is required with every counter-offer", ErrPreconditionFailed)
	}

	entry := models.NegotiationEntry{
		CollaborationID: collab.ID,
		ProposerID:      actor.UserID,
		PriceCents:      input.PriceCents,
		Topics:          input.Topics,
		ProposedDate:    input.ProposedDate,
		Message:         input.Message,
	}
	if err := m.DB.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record counter-offer: %w", err)
	}

	m.notify(m.counterparty(actor, collab), collab, models.NotifCounterOffer,
		"New counter-offer",
		fmt.Sprintf("A new offer was made on %q.", collab.Title))

	return &entry, nil
}

// AcceptOffer closes the negotiation on the latest entry's terms.
// Zero-price appearances skip payment entirely and go straight to
// scheduling; anything else awaits buyer funding.
func (m *Manager) AcceptOffer(actor Actor, id uint) (*models.Collaboration, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if collab.Type != models.CollabTypePodcast {
		return nil, fmt.Errorf("%w: only guest-appearance collaborations are negotiable", ErrInvalidState)
	}
	if collab.Status != models.StatusPendingAgreement {
		return nil, fmt.Errorf("%w: collaboration is %s", ErrInvalidState, collab.Status)
	}
	if !collab.IsParty(actor.UserID) {
		return nil, ErrUnauthorized
	}

	var latest models.NegotiationEntry
	if err := m.DB.
		Where("collaboration_id = ?", collab.ID).
		Order("created_at DESC, id DESC").
		First(&latest).Error; err != nil {
		return nil, fmt.Errorf("%w: no offer on record to accept", ErrPreconditionFailed)
	}

	next := models.StatusPendingPayment
	if latest.PriceCents == 0 {
		next = models.StatusScheduling
	}

	updates := map[string]interface{}{
		"price_cents":   latest.PriceCents,
		"topics":        latest.Topics,
		"proposed_date": latest.ProposedDate,
	}
	if err := m.transition(collab, models.StatusPendingAgreement, next, updates); err != nil {
		return nil, err
	}
	collab.PriceCents = latest.PriceCents
	collab.Topics = latest.Topics
	collab.ProposedDate = latest.ProposedDate

	message := fmt.Sprintf("The offer on %q was accepted.", collab.Title)
	if next == models.StatusPendingPayment {
		message += " Payment is now due."
	}
	m.notify(m.counterparty(actor, collab), collab, models.NotifCollabAccepted,
		"Offer accepted", message)
	m.email(m.counterparty(actor, collab), collab, "Offer accepted", message)

	return collab, nil
}

// ScheduleRecorded confirms the episode was recorded: scheduling →
// completed. Only the podcast owner (buyer) or an admin may confirm.
func (m *Manager) ScheduleRecorded(actor Actor, id uint) (*models.Collaboration, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != collab.BuyerID && !actor.isAdmin() {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	updates := map[string]interface{}{"completed_at": &now}
	if err := m.transition(collab, models.StatusScheduling, models.StatusCompleted, updates); err != nil {
		return nil, err
	}
	collab.CompletedAt = &now

	m.notify(collab.PayeeID, collab, models.NotifCollabCompleted,
		"Appearance completed",
		fmt.Sprintf("The recording for %q is done.", collab.Title))

	return collab, nil
}
