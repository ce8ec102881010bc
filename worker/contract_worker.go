package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

// ContractWorker is the safety net behind the e-signature webhook: it
// polls envelopes of collaborations stuck in awaiting_contract so a
// missed webhook delivery can't strand them forever.
type ContractWorker struct {
	DB      *gorm.DB
	ESign   *utils.ESignClient
	Manager *lifecycle.Manager
	Logger  *log.Logger
}

func NewContractWorker(db *gorm.DB, esign *utils.ESignClient, manager *lifecycle.Manager, logger *log.Logger) *ContractWorker {
	return &ContractWorker{
		DB:      db,
		ESign:   esign,
		Manager: manager,
		Logger:  logger,
	}
}

func (cw *ContractWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	cw.Logger.Println("Contract worker started")

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.Logger.Println("Contract worker shutting down...")
			return
		case <-ticker.C:
			cw.pollPendingEnvelopes()
		}
	}
}

func (cw *ContractWorker) pollPendingEnvelopes() {
	var collabs []models.Collaboration
	if err := cw.DB.Where("status = ? AND envelope_id <> ''", models.StatusAwaitingContract).
		Find(&collabs).Error; err != nil {
		cw.Logger.Printf("Error fetching pending envelopes: %v", err)
		return
	}

	for _, collab := range collabs {
		if err := cw.checkEnvelope(collab); err != nil {
			cw.Logger.Printf("Error checking envelope for collab %d: %v", collab.ID, err)
		}
	}
}

func (cw *ContractWorker) checkEnvelope(collab models.Collaboration) error {
	status, err := cw.ESign.GetEnvelope(collab.EnvelopeID)
	if err != nil {
		return err
	}

	if status.Status != "completed" {
		return nil
	}

	// A webhook may have raced us; the manager's conditional write
	// makes the duplicate a no-op.
	if _, err := cw.Manager.MarkContractsSigned(collab.ID, collab.EnvelopeID); err != nil {
		return err
	}

	cw.Logger.Printf("Envelope %s completed, collab %d moved to in_progress", collab.EnvelopeID, collab.ID)
	return nil
}
