package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvocollab/lifecycle"
	"uvocollab/models"
)

func seedPodcastCollab(t *testing.T, te *testEnv, priceCents int64) (*models.Collaboration, *models.User, *models.User) {
	t.Helper()
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)

	collab, err := te.manager.SubmitPitch(actor(podcaster), lifecycle.PitchInput{
		Type:       models.CollabTypePodcast,
		PayeeID:    guest.ID,
		Title:      "Episode 42",
		Brief:      "AI in music production",
		PriceCents: priceCents,
		Topics:     "production",
		Message:    "Opening offer",
	})
	require.NoError(t, err)
	return collab, podcaster, guest
}

func TestCounterOfferAppendOnly(t *testing.T) {
	te := newTestEnv(t)
	collab, podcaster, guest := seedPodcastCollab(t, te, 20000)

	offer := lifecycle.OfferInput{PriceCents: 30000, Topics: "production, mixing", Message: "My rate is higher"}
	_, err := te.manager.CounterOffer(actor(guest), collab.ID, offer)
	require.NoError(t, err)

	_, err = te.manager.CounterOffer(actor(podcaster), collab.ID, lifecycle.OfferInput{
		PriceCents: 25000,
		Message:    "Meet in the middle?",
	})
	require.NoError(t, err)

	// Submitting the identical offer again records a second entry;
	// nothing is deduplicated.
	_, err = te.manager.CounterOffer(actor(guest), collab.ID, offer)
	require.NoError(t, err)

	var count int64
	require.NoError(t, te.db.Model(&models.NegotiationEntry{}).
		Where("collaboration_id = ?", collab.ID).Count(&count).Error)
	assert.Equal(t, int64(4), count, "opening offer plus three counters")

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusPendingAgreement, fresh.Status, "countering never moves the status")
	assert.Equal(t, int64(20000), fresh.PriceCents, "terms only change on acceptance")
}

func TestCounterOfferRequiresMessage(t *testing.T) {
	te := newTestEnv(t)
	collab, _, guest := seedPodcastCollab(t, te, 20000)

	_, err := te.manager.CounterOffer(actor(guest), collab.ID, lifecycle.OfferInput{PriceCents: 30000})
	assert.ErrorIs(t, err, lifecycle.ErrPreconditionFailed)
}

func TestCounterOfferOnStandardCollabRejected(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingReview, 50000)

	_, err := te.manager.CounterOffer(actor(legend), collab.ID, lifecycle.OfferInput{
		PriceCents: 40000,
		Message:    "Discount",
	})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestAcceptOfferLocksLatestTerms(t *testing.T) {
	te := newTestEnv(t)
	collab, podcaster, guest := seedPodcastCollab(t, te, 20000)

	date := time.Date(2026, 10, 15, 17, 0, 0, 0, time.UTC)
	_, err := te.manager.CounterOffer(actor(guest), collab.ID, lifecycle.OfferInput{
		PriceCents:   30000,
		Topics:       "production, mixing",
		ProposedDate: &date,
		Message:      "Final terms",
	})
	require.NoError(t, err)

	accepted, err := te.manager.AcceptOffer(actor(podcaster), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, accepted.Status)
	assert.Equal(t, int64(30000), accepted.PriceCents)
	assert.Equal(t, "production, mixing", accepted.Topics)
	require.NotNil(t, accepted.ProposedDate)
	assert.True(t, accepted.ProposedDate.Equal(date))
}

func TestAcceptOfferZeroPriceSkipsPayment(t *testing.T) {
	te := newTestEnv(t)
	collab, _, guest := seedPodcastCollab(t, te, 0)

	accepted, err := te.manager.AcceptOffer(actor(guest), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduling, accepted.Status, "free appearances skip escrow entirely")
}

func TestNegotiationClosedAfterAcceptance(t *testing.T) {
	te := newTestEnv(t)
	collab, podcaster, guest := seedPodcastCollab(t, te, 20000)

	_, err := te.manager.AcceptOffer(actor(guest), collab.ID)
	require.NoError(t, err)

	_, err = te.manager.CounterOffer(actor(podcaster), collab.ID, lifecycle.OfferInput{
		PriceCents: 10000,
		Message:    "Actually...",
	})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	_, err = te.manager.AcceptOffer(actor(podcaster), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}

func TestScheduleRecordedOnlyBuyer(t *testing.T) {
	te := newTestEnv(t)
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)
	collab := te.seedCollab(t, podcaster, guest, models.CollabTypePodcast, models.StatusScheduling, 20000)

	_, err := te.manager.ScheduleRecorded(actor(guest), collab.ID)
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	done, err := te.manager.ScheduleRecorded(actor(podcaster), collab.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
}
