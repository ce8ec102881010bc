package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

// PayoutWorker releases escrowed funds to payees once a collaboration
// completes. The transfer goes to the Stripe connected account on the
// payee's Legend profile; payees without one are notified once, then
// skipped and retried on the next tick until they finish onboarding.
type PayoutWorker struct {
	DB       *gorm.DB
	Manager  *lifecycle.Manager
	Notifier lifecycle.Notifier
	Logger   *log.Logger

	// collaborations whose payee was already told about the missing
	// payout account, so each stall surfaces once per process, not
	// every tick
	stalled map[uint]bool
}

func NewPayoutWorker(db *gorm.DB, manager *lifecycle.Manager, notifier lifecycle.Notifier, logger *log.Logger) *PayoutWorker {
	return &PayoutWorker{
		DB:       db,
		Manager:  manager,
		Notifier: notifier,
		Logger:   logger,
		stalled:  make(map[uint]bool),
	}
}

func (pw *PayoutWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(15 * time.Second)

	pw.Logger.Println("Payout worker started")

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pw.Logger.Println("Payout worker shutting down...")
			return
		case <-ticker.C:
			pw.processPendingPayouts()
		}
	}
}

func (pw *PayoutWorker) processPendingPayouts() {
	var collabs []models.Collaboration
	if err := pw.DB.Where("status = ? AND payout_released_at IS NULL AND payee_amount_cents > 0",
		models.StatusCompleted).
		Find(&collabs).Error; err != nil {
		pw.Logger.Printf("Error fetching pending payouts: %v", err)
		return
	}

	for _, collab := range collabs {
		if err := pw.releasePayout(collab); err != nil {
			pw.Logger.Printf("Error releasing payout for collab %d: %v", collab.ID, err)
		}
	}
}

func (pw *PayoutWorker) releasePayout(collab models.Collaboration) error {
	var profile models.LegendProfile
	if err := pw.DB.Where("user_id = ?", collab.PayeeID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pw.flagMissingAccount(collab)
			return nil
		}
		return err
	}
	if profile.StripeAccountID == nil || *profile.StripeAccountID == "" {
		pw.flagMissingAccount(collab)
		return nil
	}

	transfer, err := utils.CreateTransfer(
		collab.PayeeAmountCents,
		collab.Currency,
		*profile.StripeAccountID,
		"Payout for collaboration: "+collab.Title,
		collab.ID,
	)
	if err != nil {
		return err
	}

	// ReleasePayout is conditional on payout_released_at being unset, so
	// a concurrent release records the transfer exactly once.
	if err := pw.Manager.ReleasePayout(collab.ID, transfer.ID); err != nil {
		if errors.Is(err, lifecycle.ErrConflict) {
			pw.Logger.Printf("Payout for collab %d already released, transfer %s needs manual review",
				collab.ID, transfer.ID)
			return nil
		}
		return err
	}

	delete(pw.stalled, collab.ID)
	pw.Logger.Printf("Released %d %s to payee %d for collab %d",
		collab.PayeeAmountCents, collab.Currency, collab.PayeeID, collab.ID)
	return nil
}

// flagMissingAccount tells the payee their earnings are blocked on
// payout onboarding.
func (pw *PayoutWorker) flagMissingAccount(collab models.Collaboration) {
	if pw.stalled[collab.ID] {
		return
	}
	pw.stalled[collab.ID] = true

	pw.Logger.Printf("Payout for collab %d blocked: payee %d has no payout account",
		collab.ID, collab.PayeeID)

	if pw.Notifier == nil {
		return
	}
	err := pw.Notifier.Notify(collab.PayeeID, collab.ID, models.NotifPayoutBlocked,
		"Add a payout account",
		fmt.Sprintf("Your earnings for %q are waiting. Connect a payout account to receive them.", collab.Title),
		fmt.Sprintf("/collaborations/%d", collab.ID))
	if err != nil {
		pw.Logger.Printf("Failed to notify payee %d about blocked payout: %v", collab.PayeeID, err)
	}
}
