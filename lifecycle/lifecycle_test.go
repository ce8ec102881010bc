package lifecycle_test

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"uvocollab/config"
	"uvocollab/lifecycle"
	"uvocollab/models"
)

// recordingNotifier captures notifications so tests can assert on them
// without a database round trip.
type recordingNotifier struct {
	notifications []recordedNotification
	failNext      bool
}

type recordedNotification struct {
	UserID   uint
	CollabID uint
	Type     string
}

func (rn *recordingNotifier) Notify(userID, collabID uint, notifType, title, message, actionURL string) error {
	if rn.failNext {
		rn.failNext = false
		return fmt.Errorf("notifier down")
	}
	rn.notifications = append(rn.notifications, recordedNotification{
		UserID:   userID,
		CollabID: collabID,
		Type:     notifType,
	})
	return nil
}

// recordingMailer captures milestone emails the same way.
type recordingMailer struct {
	emails   []recordedEmail
	failNext bool
}

type recordedEmail struct {
	UserID   uint
	Headline string
}

func (rm *recordingMailer) SendCollabEvent(userID uint, collab *models.Collaboration, headline, body string) error {
	if rm.failNext {
		rm.failNext = false
		return fmt.Errorf("smtp down")
	}
	rm.emails = append(rm.emails, recordedEmail{UserID: userID, Headline: headline})
	return nil
}

// stubContracts stands in for the e-signature provider.
type stubContracts struct {
	fail    bool
	created int
}

func (sc *stubContracts) CreateEnvelope(collab *models.Collaboration, buyer, payee *models.User) (string, string, error) {
	if sc.fail {
		return "", "", fmt.Errorf("provider unavailable")
	}
	sc.created++
	return fmt.Sprintf("env-%d", collab.ID), fmt.Sprintf("https://esign.test/env-%d.pdf", collab.ID), nil
}

type testEnv struct {
	db        *gorm.DB
	manager   *lifecycle.Manager
	notifier  *recordingNotifier
	mailer    *recordingMailer
	contracts *stubContracts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	notifier := &recordingNotifier{}
	mailer := &recordingMailer{}
	contracts := &stubContracts{}
	manager := lifecycle.NewManager(db, log.New(os.Stdout, "TEST: ", log.LstdFlags), notifier, contracts)
	manager.Mailer = mailer

	return &testEnv{db: db, manager: manager, notifier: notifier, mailer: mailer, contracts: contracts}
}

func (te *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, te.db.Create(&user).Error)
	return &user
}

// seedCollab inserts a collaboration directly at the given status so a
// test can start mid-lifecycle.
func (te *testEnv) seedCollab(t *testing.T, buyer, payee *models.User, collabType string, status models.CollaborationStatus, priceCents int64) *models.Collaboration {
	t.Helper()
	collab := models.Collaboration{
		Type:       collabType,
		Status:     status,
		BuyerID:    buyer.ID,
		PayeeID:    payee.ID,
		Title:      "Mix my single",
		Brief:      "Two-track master, radio ready",
		PriceCents: priceCents,
		Currency:   "usd",
	}
	require.NoError(t, te.db.Create(&collab).Error)
	return &collab
}

func actor(u *models.User) lifecycle.Actor {
	return lifecycle.Actor{UserID: u.ID, Role: u.Role}
}

func TestSplitPrice(t *testing.T) {
	tests := []struct {
		price, fee, payee int64
	}{
		{50000, 10000, 40000},
		{99, 20, 79},
		{3, 1, 2},
		{1, 0, 1},
		{0, 0, 0},
	}
	for _, tt := range tests {
		fee, payee := lifecycle.SplitPrice(tt.price)
		assert.Equal(t, tt.fee, fee, "fee for %d", tt.price)
		assert.Equal(t, tt.payee, payee, "payee for %d", tt.price)
		assert.Equal(t, tt.price, fee+payee, "split must sum back to %d", tt.price)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, lifecycle.CanTransition(models.StatusPendingReview, models.StatusPendingPayment))
	assert.True(t, lifecycle.CanTransition(models.StatusPendingAgreement, models.StatusScheduling))
	assert.True(t, lifecycle.CanTransition(models.StatusInProgress, models.StatusDeclined))

	// No skipping ahead, no leaving terminal states
	assert.False(t, lifecycle.CanTransition(models.StatusPendingReview, models.StatusInProgress))
	assert.False(t, lifecycle.CanTransition(models.StatusPendingReview, models.StatusCompleted))
	assert.False(t, lifecycle.CanTransition(models.StatusCompleted, models.StatusInProgress))
	assert.False(t, lifecycle.CanTransition(models.StatusDeclined, models.StatusPendingReview))
	assert.False(t, lifecycle.CanTransition(models.StatusAwaitingContract, models.StatusCompleted))
}

func TestSubmitPitchStandard(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)

	collab, err := te.manager.SubmitPitch(actor(artist), lifecycle.PitchInput{
		Type:       models.CollabTypeStandard,
		PayeeID:    legend.ID,
		Title:      "Mix my single",
		Brief:      "Two-track master",
		PriceCents: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingReview, collab.Status)
	assert.Equal(t, "usd", collab.Currency)
	assert.Zero(t, collab.PlatformFeeCents, "split is only computed at capture")

	require.Len(t, te.notifier.notifications, 1)
	assert.Equal(t, legend.ID, te.notifier.notifications[0].UserID)
	assert.Equal(t, models.NotifPitchReceived, te.notifier.notifications[0].Type)
}

func TestSubmitPitchPodcastOpensNegotiation(t *testing.T) {
	te := newTestEnv(t)
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)

	collab, err := te.manager.SubmitPitch(actor(podcaster), lifecycle.PitchInput{
		Type:       models.CollabTypePodcast,
		PayeeID:    guest.ID,
		Title:      "Episode 42",
		Brief:      "AI in music production",
		PriceCents: 20000,
		Topics:     "production, AI",
		Message:    "Would love to have you on",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAgreement, collab.Status)

	var entries []models.NegotiationEntry
	require.NoError(t, te.db.Where("collaboration_id = ?", collab.ID).Find(&entries).Error)
	require.Len(t, entries, 1, "the opening offer is the first entry")
	assert.Equal(t, podcaster.ID, entries[0].ProposerID)
	assert.Equal(t, int64(20000), entries[0].PriceCents)
}

func TestSubmitPitchPodcastRequiresMessage(t *testing.T) {
	te := newTestEnv(t)
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)

	_, err := te.manager.SubmitPitch(actor(podcaster), lifecycle.PitchInput{
		Type:    models.CollabTypePodcast,
		PayeeID: guest.ID,
		Title:   "Episode 42",
	})
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)
}

func TestSubmitPitchToSelfRejected(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)

	_, err := te.manager.SubmitPitch(actor(artist), lifecycle.PitchInput{
		Type:    models.CollabTypeStandard,
		PayeeID: artist.ID,
		Title:   "Solo",
	})
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)
}

func TestAcceptOnlyByPayee(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	_, err := te.manager.Accept(actor(artist), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized, "the buyer cannot accept their own pitch")

	accepted, err := te.manager.Accept(actor(legend), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, accepted.Status)
}

func TestAcceptPodcastGoesThroughNegotiation(t *testing.T) {
	te := newTestEnv(t)
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)
	collab := te.seedCollab(t, podcaster, guest, models.CollabTypePodcast, models.StatusPendingAgreement, 20000)

	_, err := te.manager.Accept(actor(guest), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestNonPartyCannotTouchCollaboration(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	stranger := te.createUser(t, "stranger@test.dev", models.RoleArtist)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	_, err := te.manager.Get(actor(stranger), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	_, err = te.manager.Decline(actor(stranger), collab.ID, "go away")
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusPendingReview, fresh.Status, "a rejected caller must not change state")
}

func TestAdminCanReadAndDecline(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	admin := te.createUser(t, "admin@test.dev", models.RoleAdmin)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	_, err := te.manager.Get(actor(admin), collab.ID)
	require.NoError(t, err)

	declined, err := te.manager.Decline(actor(admin), collab.ID, "terms violation")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, declined.Status)
	assert.Equal(t, "terms violation", declined.DeclineReason)
}

func TestDeclineFromEveryNonTerminalState(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)

	nonTerminal := []models.CollaborationStatus{
		models.StatusPendingReview,
		models.StatusPendingAgreement,
		models.StatusPendingPayment,
		models.StatusAwaitingContract,
		models.StatusScheduling,
		models.StatusInProgress,
	}
	for _, status := range nonTerminal {
		collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, status, 50000)
		declined, err := te.manager.Decline(actor(legend), collab.ID, "")
		require.NoError(t, err, "decline from %s", status)
		assert.Equal(t, models.StatusDeclined, declined.Status)
	}
}

func TestDeclineTerminalRejected(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)

	for _, status := range []models.CollaborationStatus{models.StatusCompleted, models.StatusDeclined} {
		collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, status, 50000)
		_, err := te.manager.Decline(actor(artist), collab.ID, "too late")
		assert.ErrorIs(t, err, lifecycle.ErrInvalidState, "decline from %s", status)
	}
}

func TestMarkCompleteGuards(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusInProgress, 50000)

	// The empty-deliverables check fires before the identity check, so
	// even the payee sees precondition failed, not unauthorized.
	_, err := te.manager.MarkComplete(actor(legend), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)

	_, err = te.manager.MarkComplete(actor(artist), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)

	_, err = te.manager.AddDeliverable(actor(legend), collab.ID, lifecycle.DeliverableInput{
		FileName: "master.wav",
		FileURL:  "https://storage.test/master.wav",
	})
	require.NoError(t, err)

	// With a deliverable on file, only the buyer may complete
	_, err = te.manager.MarkComplete(actor(legend), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	completed, err := te.manager.MarkComplete(actor(artist), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
}

func TestMarkCompleteWrongState(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusAwaitingContract, 50000)

	_, err := te.manager.MarkComplete(actor(artist), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestAddDeliverableRules(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)

	// Wrong state
	pending := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingPayment, 50000)
	_, err := te.manager.AddDeliverable(actor(legend), pending.ID, lifecycle.DeliverableInput{FileName: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	// Wrong party
	inProgress := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusInProgress, 50000)
	_, err = te.manager.AddDeliverable(actor(artist), inProgress.ID, lifecycle.DeliverableInput{FileName: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	deliverable, err := te.manager.AddDeliverable(actor(legend), inProgress.ID, lifecycle.DeliverableInput{
		FileName:  "master.wav",
		FileURL:   "https://storage.test/master.wav",
		SizeBytes: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, legend.ID, deliverable.UploaderID)
}

func TestMarkContractsSignedEnvelopeMismatch(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusAwaitingContract, 50000)
	require.NoError(t, te.db.Model(collab).Update("envelope_id", "env-real").Error)

	_, err := te.manager.MarkContractsSigned(collab.ID, "env-forged")
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)

	signed, err := te.manager.MarkContractsSigned(collab.ID, "env-real")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, signed.Status)
	require.NotNil(t, signed.AllPartiesSignedAt)
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	te.notifier.failNext = true
	accepted, err := te.manager.Accept(actor(legend), collab.ID)
	require.NoError(t, err, "a notification failure must not undo the transition")
	assert.Equal(t, models.StatusPendingPayment, accepted.Status)
}

func TestMilestoneEmails(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)

	pitched := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)
	_, err := te.manager.Accept(actor(legend), pitched.ID)
	require.NoError(t, err)
	require.Len(t, te.mailer.emails, 1)
	assert.Equal(t, artist.ID, te.mailer.emails[0].UserID, "acceptance mails the buyer")
	assert.Equal(t, "Pitch accepted", te.mailer.emails[0].Headline)

	contracted := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusAwaitingContract, 50000)
	require.NoError(t, te.db.Model(contracted).Update("envelope_id", "env-1").Error)
	_, err = te.manager.MarkContractsSigned(contracted.ID, "env-1")
	require.NoError(t, err)
	require.Len(t, te.mailer.emails, 3, "signing mails both parties")

	working := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusInProgress, 50000)
	_, err = te.manager.AddDeliverable(actor(legend), working.ID, lifecycle.DeliverableInput{FileName: "master.wav"})
	require.NoError(t, err)
	_, err = te.manager.MarkComplete(actor(artist), working.ID)
	require.NoError(t, err)
	require.Len(t, te.mailer.emails, 4)
	assert.Equal(t, legend.ID, te.mailer.emails[3].UserID, "completion mails the payee")
	assert.Equal(t, "Collaboration completed", te.mailer.emails[3].Headline)
}

func TestMailerFailureDoesNotFailTransition(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	te.mailer.failNext = true
	accepted, err := te.manager.Accept(actor(legend), collab.ID)
	require.NoError(t, err, "an email failure must not undo the transition")
	assert.Equal(t, models.StatusPendingPayment, accepted.Status)
}

func TestDeclineBeatsLateOfferAcceptance(t *testing.T) {
	te := newTestEnv(t)
	collab, podcaster, guest := seedPodcastCollab(t, te, 20000)

	_, err := te.manager.Decline(actor(guest), collab.ID, "not a fit")
	require.NoError(t, err)

	_, err = te.manager.AcceptOffer(actor(podcaster), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusDeclined, fresh.Status, "the losing call must not resurrect the row")
	assert.Equal(t, int64(20000), fresh.PriceCents)
}

func TestStaleStatusWriteRejected(t *testing.T) {
	te := newTestEnv(t)
	collab, podcaster, guest := seedPodcastCollab(t, te, 20000)

	_, err := te.manager.CounterOffer(actor(guest), collab.ID, lifecycle.OfferInput{
		PriceCents: 35000,
		Message:    "My rate",
	})
	require.NoError(t, err)

	// Flip the row between the acceptance's read and its status write,
	// the way a decline racing through another request would.
	diverted := false
	err = te.db.Callback().Update().Before("gorm:update").Register("decline_mid_flight", func(tx *gorm.DB) {
		if diverted || tx.Statement.Table != "collaborations" {
			return
		}
		diverted = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE collaborations SET status = ? WHERE id = ?",
			models.StatusDeclined, collab.ID)
	})
	require.NoError(t, err)

	_, err = te.manager.AcceptOffer(actor(podcaster), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrConflict)
	assert.True(t, diverted)

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusDeclined, fresh.Status, "the decline keeps the row")
	assert.Equal(t, int64(20000), fresh.PriceCents, "the rejected write must not land its terms")
}

func TestGetNotFound(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)

	_, err := te.manager.Get(actor(artist), 9999)
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
}
