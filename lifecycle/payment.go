package lifecycle

import (
	"fmt"
	"time"

	"uvocollab/models"
)

// PaymentResult carries what the payment webhook knows about a
// captured intent.
type PaymentResult struct {
	PaymentIntentID string
	ChargeID        string
	ReceiptURL      string
}

// CapturePayment is the system transition driven by the payment
// webhook. It computes the immutable 20/80 split exactly once, records
// the transaction, and advances the status: standard collaborations go
// to awaiting_contract (the contract envelope is created first, so an
// upstream failure leaves the status untouched), podcast ones go to
// scheduling.
func (m *Manager) CapturePayment(id uint, result PaymentResult) (*models.Collaboration, error) {
	collab, err := m.loadSystem(id)
	if err != nil {
		return nil, err
	}
	if collab.Status != models.StatusPendingPayment {
		return nil, fmt.Errorf("%w: collaboration is %s", ErrInvalidState, collab.Status)
	}

	platformFee, payeeAmount := SplitPrice(collab.PriceCents)
	now := time.Now()

	updates := map[string]interface{}{
		"platform_fee_cents":       platformFee,
		"payee_amount_cents":       payeeAmount,
		"paid_at":                  &now,
		"stripe_payment_intent_id": result.PaymentIntentID,
	}

	next := models.StatusScheduling
	if collab.Type == models.CollabTypeStandard {
		next = models.StatusAwaitingContract

		var buyer, payee models.User
		if err := m.DB.First(&buyer, collab.BuyerID).Error; err != nil {
			return nil, err
		}
		if err := m.DB.First(&payee, collab.PayeeID).Error; err != nil {
			return nil, err
		}

		envelopeID, contractURL, err := m.Contracts.CreateEnvelope(collab, &buyer, &payee)
		if err != nil {
			return nil, fmt.Errorf("%w: contract generation failed: %v", ErrUpstreamFailure, err)
		}
		updates["envelope_id"] = envelopeID
		updates["contract_url"] = contractURL
		updates["contract_sent_at"] = &now
		collab.EnvelopeID = envelopeID
		collab.ContractURL = contractURL
		collab.ContractSentAt = &now
	}

	if err := m.transition(collab, models.StatusPendingPayment, next, updates); err != nil {
		return nil, err
	}
	collab.PlatformFeeCents = platformFee
	collab.PayeeAmountCents = payeeAmount
	collab.PaidAt = &now
	collab.StripePaymentIntentID = result.PaymentIntentID

	transaction := models.PaymentTransaction{
		CollaborationID:       collab.ID,
		PayerID:               collab.BuyerID,
		PayeeID:               collab.PayeeID,
		AmountCents:           collab.PriceCents,
		PlatformFeeCents:      platformFee,
		Currency:              collab.Currency,
		PaymentStatus:         "completed",
		Description:           fmt.Sprintf("Escrow funding for %q", collab.Title),
		StripePaymentIntentID: result.PaymentIntentID,
		StripeChargeID:        result.ChargeID,
		ReceiptURL:            result.ReceiptURL,
	}
	if err := m.DB.Create(&transaction).Error; err != nil {
		// The status is already advanced; a missing ledger row is a
		// reporting problem, not a lifecycle one.
		m.Logger.Printf("collaboration %d: failed to record payment transaction: %v", collab.ID, err)
	}

	m.notify(collab.PayeeID, collab, models.NotifPaymentCaptured,
		"Payment received",
		fmt.Sprintf("Escrow for %q is funded.", collab.Title))
	buyerMsg := fmt.Sprintf("Your payment for %q was captured.", collab.Title)
	if next == models.StatusAwaitingContract {
		buyerMsg += " The contract is out for signature."
	}
	m.notify(collab.BuyerID, collab, models.NotifPaymentCaptured, "Payment received", buyerMsg)

	return collab, nil
}

// MarkPaymentFailed records a failed capture attempt and tells the
// buyer. The collaboration stays in pending_payment so they can retry.
func (m *Manager) MarkPaymentFailed(id uint, paymentIntentID string) error {
	collab, err := m.loadSystem(id)
	if err != nil {
		return err
	}

	transaction := models.PaymentTransaction{
		CollaborationID:       collab.ID,
		PayerID:               collab.BuyerID,
		PayeeID:               collab.PayeeID,
		AmountCents:           collab.PriceCents,
		Currency:              collab.Currency,
		PaymentStatus:         "failed",
		Description:           fmt.Sprintf("Failed payment attempt for %q", collab.Title),
		StripePaymentIntentID: paymentIntentID,
	}
	if err := m.DB.Create(&transaction).Error; err != nil {
		return err
	}

	m.notify(collab.BuyerID, collab, models.NotifPaymentFailed,
		"Payment failed",
		fmt.Sprintf("Your payment for %q did not go through. Please try again.", collab.Title))
	return nil
}

// ReleasePayout marks the payout as sent. The conditional write on
// payout_released_at IS NULL makes the release exactly-once even if the
// worker polls the same row twice.
func (m *Manager) ReleasePayout(id uint, transferID string) error {
	collab, err := m.loadSystem(id)
	if err != nil {
		return err
	}
	if collab.Status != models.StatusCompleted {
		return fmt.Errorf("%w: payout requires a completed collaboration", ErrInvalidState)
	}

	now := time.Now()
	res := m.DB.Model(&models.Collaboration{}).
		Where("id = ? AND payout_released_at IS NULL", collab.ID).
		Updates(map[string]interface{}{
			"payout_released_at": &now,
			"stripe_transfer_id": transferID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payout already released", ErrConflict)
	}

	m.notify(collab.PayeeID, collab, models.NotifPayoutReleased,
		"Payout released",
		fmt.Sprintf("Your earnings for %q are on the way.", collab.Title))
	return nil
}
