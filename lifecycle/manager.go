package lifecycle

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"uvocollab/models"
)

// Actor is the explicit caller identity passed into every operation.
// The manager never reads ambient auth state, so it is testable in
// isolation.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) isAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Notifier persists a notification for the counterparty. Failures are
// logged, never propagated: a missed notification must not undo a
// status change.
type Notifier interface {
	Notify(userID uint, collabID uint, notifType, title, message, actionURL string) error
}

// ContractService creates a signature envelope for both parties and
// returns the envelope id plus the unsigned document URL.
type ContractService interface {
	CreateEnvelope(collab *models.Collaboration, buyer, payee *models.User) (envelopeID, contractURL string, err error)
}

// Mailer sends the transactional email for a lifecycle milestone.
// Optional; a nil Mailer disables email. Like Notifier, failures are
// logged and never fail the transition.
type Mailer interface {
	SendCollabEvent(userID uint, collab *models.Collaboration, headline, body string) error
}

// Manager owns the status column of Collaboration rows. Every status
// change goes through a conditional single-row update guarded on the
// expected current status, so two racing requests cannot silently
// overwrite each other: the loser gets ErrConflict.
type Manager struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Notifier  Notifier
	Contracts ContractService
	Mailer    Mailer
}

func NewManager(db *gorm.DB, logger *log.Logger, notifier Notifier, contracts ContractService) *Manager {
	return &Manager{
		DB:        db,
		Logger:    logger,
		Notifier:  notifier,
		Contracts: contracts,
	}
}

// transitions maps each status to the set of statuses it may advance
// to. Declined is reachable from every non-terminal state.
var transitions = map[models.CollaborationStatus][]models.CollaborationStatus{
	models.StatusPendingReview:    {models.StatusPendingPayment, models.StatusDeclined},
	models.StatusPendingAgreement: {models.StatusPendingPayment, models.StatusScheduling, models.StatusDeclined},
	models.StatusPendingPayment:   {models.StatusAwaitingContract, models.StatusScheduling, models.StatusDeclined},
	models.StatusAwaitingContract: {models.StatusInProgress, models.StatusDeclined},
	models.StatusScheduling:       {models.StatusCompleted, models.StatusDeclined},
	models.StatusInProgress:       {models.StatusCompleted, models.StatusDeclined},
}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to models.CollaborationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SplitPrice returns the fixed 20% platform commission (rounded half
// up) and the payee remainder. The two always sum to the price.
func SplitPrice(priceCents int64) (platformFee, payeeAmount int64) {
	platformFee = (priceCents*20 + 50) / 100
	return platformFee, priceCents - platformFee
}

// PitchInput is a buyer's initial request to a Legend or a podcast.
type PitchInput struct {
	Type         string
	PayeeID      uint
	PodcastID    *uint
	ServiceID    *uint
	Title        string
	Brief        string
	PriceCents   int64
	Currency     string
	Topics       string
	ProposedDate *time.Time
	Message      string
}

// SubmitPitch creates the collaboration. Standard pitches start in
// pending_review; podcast guest pitches start in pending_agreement with
// the opening offer as the first negotiation entry.
func (m *Manager) SubmitPitch(actor Actor, input PitchInput) (*models.Collaboration, error) {
	if input.PayeeID == actor.UserID {
		return nil, fmt.Errorf("%w: cannot pitch yourself", ErrPreconditionFailed)
	}

	collab := models.Collaboration{
		Type:         input.Type,
		BuyerID:      actor.UserID,
		PayeeID:      input.PayeeID,
		PodcastID:    input.PodcastID,
		ServiceID:    input.ServiceID,
		Title:        input.Title,
		Brief:        input.Brief,
		PriceCents:   input.PriceCents,
		Currency:     input.Currency,
		Topics:       input.Topics,
		ProposedDate: input.ProposedDate,
	}
	if collab.Currency == "" {
		collab.Currency = "usd"
	}

	switch input.Type {
	case models.CollabTypeStandard:
		collab.Status = models.StatusPendingReview
	case models.CollabTypePodcast:
		if input.Message == "" {
			return nil, fmt.Errorf("%w: an opening message is required", ErrPreconditionFailed)
		}
		collab.Status = models.StatusPendingAgreement
	default:
		return nil, fmt.Errorf("%w: unknown collaboration type %q", ErrPreconditionFailed, input.Type)
	}

	if err := m.DB.Create(&collab).Error; err != nil {
		return nil, fmt.Errorf("failed to create collaboration: %w", err)
	}

	if collab.Type == models.CollabTypePodcast {
		entry := models.NegotiationEntry{
			CollaborationID: collab.ID,
			ProposerID:      actor.UserID,
			PriceCents:      input.PriceCents,
			Topics:          input.Topics,
			ProposedDate:    input.ProposedDate,
			Message:         input.Message,
		}
		if err := m.DB.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("failed to record opening offer: %w", err)
		}
	}

	m.notify(collab.PayeeID, &collab, models.NotifPitchReceived,
		"New collaboration pitch",
		fmt.Sprintf("You received a new pitch: %s", collab.Title))

	return &collab, nil
}

// Get loads a collaboration with its relations; only the two parties
// and admins may read it.
func (m *Manager) Get(actor Actor, id uint) (*models.Collaboration, error) {
	var collab models.Collaboration
	err := m.DB.
		Preload("Deliverables").
		Preload("NegotiationHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("negotiation_entries.created_at ASC")
		}).
		First(&collab, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := m.authorize(actor, &collab); err != nil {
		return nil, err
	}
	return &collab, nil
}

// List returns every collaboration the actor is a party to, newest first.
func (m *Manager) List(actor Actor) ([]models.Collaboration, error) {
	var collabs []models.Collaboration
	err := m.DB.
		Where("buyer_id = ? OR payee_id = ?", actor.UserID, actor.UserID).
		Order("created_at DESC").
		Find(&collabs).Error
	return collabs, err
}

// Accept moves a standard pitch to pending_payment. Only the Legend
// (payee) may accept.
func (m *Manager) Accept(actor Actor, id uint) (*models.Collaboration, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if collab.Type != models.CollabTypeStandard {
		return nil, fmt.Errorf("%w: podcast pitches are accepted through the negotiation flow", ErrInvalidState)
	}
	if actor.UserID != collab.PayeeID && !actor.isAdmin() {
		return nil, ErrUnauthorized
	}

	if err := m.transition(collab, models.StatusPendingReview, models.StatusPendingPayment, nil); err != nil {
		return nil, err
	}

	m.notify(collab.BuyerID, collab, models.NotifCollabAccepted,
		"Pitch accepted",
		fmt.Sprintf("%q was accepted. Complete payment to get started.", collab.Title))
	m.email(collab.BuyerID, collab, "Pitch accepted",
		fmt.Sprintf("%q was accepted. Complete payment to get started.", collab.Title))

	return collab, nil
}

// Decline terminates the collaboration from any non-terminal state.
// Either party (or admin) may decline; no funds move.
func (m *Manager) Decline(actor Actor, id uint, reason string) (*models.Collaboration, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if collab.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: collaboration is already %s", ErrInvalidState, collab.Status)
	}

	updates := map[string]interface{}{"decline_reason": reason}
	if err := m.transition(collab, collab.Status, models.StatusDeclined, updates); err != nil {
		return nil, err
	}
	collab.DeclineReason = reason

	m.notify(m.counterparty(actor, collab), collab, models.NotifCollabDeclined,
		"Collaboration declined",
		fmt.Sprintf("%q was declined.", collab.Title))

	return collab, nil
}

// MarkComplete releases the work: in_progress → completed. Rejected
// whenever there are no deliverables, regardless of caller; succeeds
// only for the buyer. Fund release itself is handled by the payout
// worker.
func (m *Manager) MarkComplete(actor Actor, id uint) (*models.Collaboration, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if collab.Status != models.StatusInProgress {
		return nil, fmt.Errorf("%w: collaboration is %s", ErrInvalidState, collab.Status)
	}

	var deliverableCount int64
	if err := m.DB.Model(&models.Deliverable{}).
		Where("collaboration_id = ?", collab.ID).
		Count(&deliverableCount).Error; err != nil {
		return nil, err
	}
	if deliverableCount == 0 {
		return nil, fmt.Errorf("%w: no deliverables have been uploaded", ErrPreconditionFailed)
	}
	if actor.UserID != collab.BuyerID {
		return nil, ErrUnauthorized
	}

	now := time.Now()
	updates := map[string]interface{}{"completed_at": &now}
	if err := m.transition(collab, models.StatusInProgress, models.StatusCompleted, updates); err != nil {
		return nil, err
	}
	collab.CompletedAt = &now

	m.notify(collab.PayeeID, collab, models.NotifCollabCompleted,
		"Collaboration completed",
		fmt.Sprintf("%q was marked complete. Your payout is on the way.", collab.Title))
	m.email(collab.PayeeID, collab, "Collaboration completed",
		fmt.Sprintf("%q was marked complete. Your payout is on the way.", collab.Title))

	return collab, nil
}

// MarkContractsSigned advances awaiting_contract → in_progress once the
// e-signature provider reports all parties signed.
func (m *Manager) MarkContractsSigned(id uint, envelopeID string) (*models.Collaboration, error) {
	collab, err := m.loadSystem(id)
	if err != nil {
		return nil, err
	}
	if collab.EnvelopeID != envelopeID {
		return nil, fmt.Errorf("%w: envelope %s does not belong to collaboration %d", ErrPreconditionFailed, envelopeID, id)
	}

	now := time.Now()
	updates := map[string]interface{}{"all_parties_signed_at": &now}
	if err := m.transition(collab, models.StatusAwaitingContract, models.StatusInProgress, updates); err != nil {
		return nil, err
	}
	collab.AllPartiesSignedAt = &now

	msg := fmt.Sprintf("All parties signed the contract for %q. Work can begin.", collab.Title)
	m.notify(collab.BuyerID, collab, models.NotifContractSigned, "Contract signed", msg)
	m.notify(collab.PayeeID, collab, models.NotifContractSigned, "Contract signed", msg)
	m.email(collab.BuyerID, collab, "Contract signed", msg)
	m.email(collab.PayeeID, collab, "Contract signed", msg)

	return collab, nil
}

// DeliverableInput describes an uploaded file reference.
type DeliverableInput struct {
	FileName    string
	FileURL     string
	ContentType string
	SizeBytes   int64
	Note        string
}

// AddDeliverable appends a file reference. Only the payee may upload,
// and only while the collaboration is in progress.
func (m *Manager) AddDeliverable(actor Actor, id uint, input DeliverableInput) (*models.Deliverable, error) {
	collab, err := m.load(actor, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != collab.PayeeID {
		return nil, ErrUnauthorized
	}
	if collab.Status != models.StatusInProgress {
		return nil, fmt.Errorf("%w: deliverables can only be added while in progress", ErrInvalidState)
	}

	deliverable := models.Deliverable{
		CollaborationID: collab.ID,
		UploaderID:      actor.UserID,
		FileName:        input.FileName,
		FileURL:         input.FileURL,
		ContentType:     input.ContentType,
		SizeBytes:       input.SizeBytes,
		Note:            input.Note,
	}
	if err := m.DB.Create(&deliverable).Error; err != nil {
		return nil, fmt.Errorf("failed to save deliverable: %w", err)
	}

	m.notify(collab.BuyerID, collab, models.NotifDeliverableAdded,
		"New deliverable",
		fmt.Sprintf("A new file was delivered for %q: %s", collab.Title, input.FileName))

	return &deliverable, nil
}

// load fetches the row and checks that the actor may touch it.
func (m *Manager) load(actor Actor, id uint) (*models.Collaboration, error) {
	collab, err := m.loadSystem(id)
	if err != nil {
		return nil, err
	}
	if err := m.authorize(actor, collab); err != nil {
		return nil, err
	}
	return collab, nil
}

// loadSystem fetches the row without an authorization check, for
// webhook- and worker-driven transitions.
func (m *Manager) loadSystem(id uint) (*models.Collaboration, error) {
	var collab models.Collaboration
	if err := m.DB.First(&collab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &collab, nil
}

func (m *Manager) authorize(actor Actor, collab *models.Collaboration) error {
	if actor.isAdmin() || collab.IsParty(actor.UserID) {
		return nil
	}
	return ErrUnauthorized
}

// counterparty returns the party opposite the actor; for admin callers
// the buyer is notified.
func (m *Manager) counterparty(actor Actor, collab *models.Collaboration) uint {
	if actor.UserID == collab.BuyerID {
		return collab.PayeeID
	}
	return collab.BuyerID
}

// transition performs the conditional status write. The WHERE clause on
// the expected current status is what closes the concurrent
// last-write-wins race: zero rows affected means someone else got
// there first.
func (m *Manager) transition(collab *models.Collaboration, from, to models.CollaborationStatus, updates map[string]interface{}) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidState, from, to)
	}

	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := m.DB.Model(&models.Collaboration{}).
		Where("id = ? AND status = ?", collab.ID, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update collaboration %d: %w", collab.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: expected status %s", ErrConflict, from)
	}

	collab.Status = to
	m.Logger.Printf("collaboration %d: %s → %s", collab.ID, from, to)
	return nil
}

// notify is fire-and-forget: a failed notification is logged and
// reported but never fails the transition that produced it.
func (m *Manager) notify(userID uint, collab *models.Collaboration, notifType, title, message string) {
	if m.Notifier == nil {
		return
	}
	actionURL := fmt.Sprintf("/collaborations/%d", collab.ID)
	if err := m.Notifier.Notify(userID, collab.ID, notifType, title, message, actionURL); err != nil {
		logrus.WithFields(logrus.Fields{
			"collaboration_id": collab.ID,
			"recipient_id":     userID,
			"type":             notifType,
		}).WithError(err).Error("failed to create notification")
		sentry.CaptureException(err)
	}
}

// email mirrors notify for the mail channel.
func (m *Manager) email(userID uint, collab *models.Collaboration, headline, body string) {
	if m.Mailer == nil {
		return
	}
	if err := m.Mailer.SendCollabEvent(userID, collab, headline, body); err != nil {
		logrus.WithFields(logrus.Fields{
			"collaboration_id": collab.ID,
			"recipient_id":     userID,
		}).WithError(err).Error("failed to send collaboration email")
		sentry.CaptureException(err)
	}
}
