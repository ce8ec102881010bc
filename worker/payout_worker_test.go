package worker

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

type fakeNotifier struct {
	notes []fakeNote
}

type fakeNote struct {
	UserID uint
	Type   string
}

func (fn *fakeNotifier) Notify(userID, collabID uint, notifType, title, message, actionURL string) error {
	fn.notes = append(fn.notes, fakeNote{UserID: userID, Type: notifType})
	return nil
}

func TestPayoutBlockedOnMissingAccountNotifiesOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	buyer := models.User{Email: "host@test.dev", PasswordHash: "x", Role: models.RolePodcaster, IsActive: true}
	payee := models.User{Email: "guest@test.dev", PasswordHash: "x", Role: models.RoleGuest, IsActive: true}
	require.NoError(t, db.Create(&buyer).Error)
	require.NoError(t, db.Create(&payee).Error)

	// Completed and funded, but the payee never connected a payout
	// account: no LegendProfile row exists.
	collab := models.Collaboration{
		Type:             models.CollabTypePodcast,
		Status:           models.StatusCompleted,
		BuyerID:          buyer.ID,
		PayeeID:          payee.ID,
		Title:            "Episode 42",
		PriceCents:       20000,
		PayeeAmountCents: 16000,
		Currency:         "usd",
	}
	require.NoError(t, db.Create(&collab).Error)

	notifier := &fakeNotifier{}
	manager := lifecycle.NewManager(db, log.New(os.Stdout, "TEST: ", log.LstdFlags), notifier, nil)
	pw := NewPayoutWorker(db, manager, notifier, log.New(os.Stdout, "TEST: ", log.LstdFlags))

	pw.processPendingPayouts()

	require.Len(t, notifier.notes, 1, "the payee hears about the blocked payout")
	assert.Equal(t, payee.ID, notifier.notes[0].UserID)
	assert.Equal(t, models.NotifPayoutBlocked, notifier.notes[0].Type)

	// Subsequent ticks retry the payout but stay quiet
	pw.processPendingPayouts()
	pw.processPendingPayouts()
	assert.Len(t, notifier.notes, 1)

	var fresh models.Collaboration
	require.NoError(t, db.First(&fresh, collab.ID).Error)
	assert.Nil(t, fresh.PayoutReleasedAt, "nothing is released without a destination")
}

func TestPayoutBlockedOnProfileWithoutAccount(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	buyer := models.User{Email: "artist@test.dev", PasswordHash: "x", Role: models.RoleArtist, IsActive: true}
	payee := models.User{Email: "legend@test.dev", PasswordHash: "x", Role: models.RoleLegend, IsActive: true}
	require.NoError(t, db.Create(&buyer).Error)
	require.NoError(t, db.Create(&payee).Error)

	profile := models.LegendProfile{UserID: payee.ID, Headline: "Mixing engineer"}
	require.NoError(t, db.Create(&profile).Error)

	collab := models.Collaboration{
		Type:             models.CollabTypeStandard,
		Status:           models.StatusCompleted,
		BuyerID:          buyer.ID,
		PayeeID:          payee.ID,
		Title:            "Mix my single",
		PriceCents:       50000,
		PayeeAmountCents: 40000,
		Currency:         "usd",
	}
	require.NoError(t, db.Create(&collab).Error)

	notifier := &fakeNotifier{}
	manager := lifecycle.NewManager(db, log.New(os.Stdout, "TEST: ", log.LstdFlags), notifier, nil)
	pw := NewPayoutWorker(db, manager, notifier, log.New(os.Stdout, "TEST: ", log.LstdFlags))

	pw.processPendingPayouts()
	pw.processPendingPayouts()

	require.Len(t, notifier.notes, 1)
	assert.Equal(t, models.NotifPayoutBlocked, notifier.notes[0].Type)
}
