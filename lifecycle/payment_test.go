package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uvocollab/lifecycle"
	"uvocollab/models"
)

func TestCapturePaymentStandard(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingPayment, 50000)

	captured, err := te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{
		PaymentIntentID: "pi_123",
		ChargeID:        "ch_123",
		ReceiptURL:      "https://stripe.test/receipt",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAwaitingContract, captured.Status)
	assert.Equal(t, int64(10000), captured.PlatformFeeCents)
	assert.Equal(t, int64(40000), captured.PayeeAmountCents)
	require.NotNil(t, captured.PaidAt)
	assert.Equal(t, 1, te.contracts.created, "the envelope goes out before the status moves")
	assert.NotEmpty(t, captured.EnvelopeID)
	require.NotNil(t, captured.ContractSentAt)

	var txn models.PaymentTransaction
	require.NoError(t, te.db.Where("collaboration_id = ?", collab.ID).First(&txn).Error)
	assert.Equal(t, "completed", txn.PaymentStatus)
	assert.Equal(t, int64(50000), txn.AmountCents)
	assert.Equal(t, "pi_123", txn.StripePaymentIntentID)
}

func TestCapturePaymentPodcastSkipsContract(t *testing.T) {
	te := newTestEnv(t)
	podcaster := te.createUser(t, "host@test.dev", models.RolePodcaster)
	guest := te.createUser(t, "guest@test.dev", models.RoleGuest)
	collab := te.seedCollab(t, podcaster, guest, models.CollabTypePodcast, models.StatusPendingPayment, 20000)

	captured, err := te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{PaymentIntentID: "pi_pod"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusScheduling, captured.Status)
	assert.Zero(t, te.contracts.created, "guest appearances don't use signature envelopes")
	assert.Empty(t, captured.EnvelopeID)
}

func TestCapturePaymentContractFailureLeavesStateUntouched(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingPayment, 50000)

	te.contracts.fail = true
	_, err := te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{PaymentIntentID: "pi_fail"})
	assert.ErrorIs(t, err, lifecycle.ErrUpstreamFailure)

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusPendingPayment, fresh.Status)
	assert.Zero(t, fresh.PlatformFeeCents, "no split is stored when the capture aborts")
	assert.Nil(t, fresh.PaidAt)

	// The buyer can retry once the provider recovers
	te.contracts.fail = false
	captured, err := te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{PaymentIntentID: "pi_retry"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingContract, captured.Status)
}

func TestCapturePaymentReplayRejected(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingPayment, 50000)

	_, err := te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{PaymentIntentID: "pi_once"})
	require.NoError(t, err)

	// A retried webhook must not double-capture or recompute the split
	_, err = te.manager.CapturePayment(collab.ID, lifecycle.PaymentResult{PaymentIntentID: "pi_once"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)

	var count int64
	require.NoError(t, te.db.Model(&models.PaymentTransaction{}).
		Where("collaboration_id = ? AND payment_status = ?", collab.ID, "completed").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkPaymentFailedKeepsStatus(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusPendingPayment, 50000)

	require.NoError(t, te.manager.MarkPaymentFailed(collab.ID, "pi_declined"))

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, models.StatusPendingPayment, fresh.Status, "the buyer can retry after a failed charge")

	var txn models.PaymentTransaction
	require.NoError(t, te.db.Where("collaboration_id = ?", collab.ID).First(&txn).Error)
	assert.Equal(t, "failed", txn.PaymentStatus)

	// The failure notification goes to the buyer
	last := te.notifier.notifications[len(te.notifier.notifications)-1]
	assert.Equal(t, artist.ID, last.UserID)
	assert.Equal(t, models.NotifPaymentFailed, last.Type)
}

func TestReleasePayoutExactlyOnce(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusCompleted, 50000)
	require.NoError(t, te.db.Model(collab).Updates(map[string]interface{}{
		"platform_fee_cents": 10000,
		"payee_amount_cents": 40000,
	}).Error)

	require.NoError(t, te.manager.ReleasePayout(collab.ID, "tr_1"))

	// The worker may poll the same row again before the first update is
	// visible to it; the second release must fail, not double-pay.
	err := te.manager.ReleasePayout(collab.ID, "tr_2")
	assert.ErrorIs(t, err, lifecycle.ErrConflict)

	var fresh models.Collaboration
	require.NoError(t, te.db.First(&fresh, collab.ID).Error)
	assert.Equal(t, "tr_1", fresh.StripeTransferID)
	require.NotNil(t, fresh.PayoutReleasedAt)
}

func TestReleasePayoutRequiresCompletion(t *testing.T) {
	te := newTestEnv(t)
	artist := te.createUser(t, "artist@test.dev", models.RoleArtist)
	legend := te.createUser(t, "legend@test.dev", models.RoleLegend)
	collab := te.seedCollab(t, artist, legend, models.CollabTypeStandard, models.StatusInProgress, 50000)

	err := te.manager.ReleasePayout(collab.ID, "tr_early")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidState)
}
