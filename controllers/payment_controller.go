package controller

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"gorm.io/gorm"

	"uvocollab/lifecycle"
	"uvocollab/models"
	"uvocollab/utils"
)

type PaymentController struct {
	DB      *gorm.DB
	Logger  *log.Logger
	Manager *lifecycle.Manager
}

func NewPaymentController(db *gorm.DB, logger *log.Logger, manager *lifecycle.Manager) *PaymentController {
	return &PaymentController{
		DB:      db,
		Logger:  logger,
		Manager: manager,
	}
}

// CreatePaymentIntent opens a Stripe intent for a collaboration that is
// waiting on payment. Only the buyer pays.
func (pc *PaymentController) CreatePaymentIntent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	user := c.Locals("user").(*models.User)

	collab, err := pc.Manager.Get(actorFrom(c), uint(id))
	if err != nil {
		return lifecycleError(c, err)
	}
	if collab.BuyerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the buyer can pay for this collaboration",
		})
	}
	if collab.Status != models.StatusPendingPayment {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Collaboration is not awaiting payment",
		})
	}

	// A retried checkout reuses the open intent instead of minting a
	// second charge for the same collaboration.
	if collab.StripePaymentIntentID != "" {
		existing, err := utils.GetPaymentIntent(collab.StripePaymentIntentID)
		if err == nil && paymentIntentReusable(existing, collab.PriceCents) {
			return c.JSON(fiber.Map{
				"client_secret":     existing.ClientSecret,
				"payment_intent_id": existing.ID,
				"amount_cents":      collab.PriceCents,
				"currency":          collab.Currency,
			})
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(collab.PriceCents),
		Currency: stripe.String(collab.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("collaboration_id", strconv.FormatUint(uint64(collab.ID), 10))
	params.AddMetadata("buyer_id", strconv.FormatUint(uint64(user.ID), 10))
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		params.Customer = stripe.String(*user.StripeCustomerID)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		pc.Logger.Printf("stripe intent creation failed for collab %d: %v", collab.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to initiate payment",
		})
	}

	if err := pc.DB.Model(&models.Collaboration{}).
		Where("id = ?", collab.ID).
		Update("stripe_payment_intent_id", intent.ID).Error; err != nil {
		pc.Logger.Printf("failed to store intent id for collab %d: %v", collab.ID, err)
	}

	return c.JSON(fiber.Map{
		"client_secret":     intent.ClientSecret,
		"payment_intent_id": intent.ID,
		"amount_cents":      collab.PriceCents,
		"currency":          collab.Currency,
	})
}

// HandleStripeWebhook drives the payment transitions. Stripe retries
// failed deliveries, so every branch must be idempotent; the manager's
// conditional status writes take care of replays.
func (pc *PaymentController) HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return pc.handlePaymentSucceeded(c, event)
	case "payment_intent.payment_failed":
		return pc.handlePaymentFailed(c, event)
	default:
		// Acknowledge events we don't act on so Stripe stops retrying
		return c.JSON(fiber.Map{"received": true})
	}
}

func (pc *PaymentController) handlePaymentSucceeded(c *fiber.Ctx, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Malformed payment intent",
		})
	}

	collabID, ok := collabIDFromIntent(&intent)
	if !ok {
		pc.Logger.Printf("payment intent %s carries no collaboration_id, ignoring", intent.ID)
		return c.JSON(fiber.Map{"received": true})
	}

	result := lifecycle.PaymentResult{PaymentIntentID: intent.ID}
	if intent.LatestCharge != nil {
		result.ChargeID = intent.LatestCharge.ID
		result.ReceiptURL = intent.LatestCharge.ReceiptURL
	}

	collab, err := pc.Manager.CapturePayment(collabID, result)
	if err != nil {
		// A replayed webhook lands here once the status has moved on
		if collab == nil && errorIsTerminalForWebhook(err) {
			return c.JSON(fiber.Map{"received": true})
		}
		pc.Logger.Printf("capture failed for collab %d: %v", collabID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment",
		})
	}

	var buyer models.User
	if err := pc.DB.First(&buyer, collab.BuyerID).Error; err == nil {
		name := buyer.Email
		if buyer.Name != nil && *buyer.Name != "" {
			name = *buyer.Name
		}
		go utils.SendReceiptEmail(buyer.Email, name, collab.Title, collab.PriceCents, collab.Currency)
	}

	return c.JSON(fiber.Map{"received": true})
}

func (pc *PaymentController) handlePaymentFailed(c *fiber.Ctx, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Malformed payment intent",
		})
	}

	collabID, ok := collabIDFromIntent(&intent)
	if !ok {
		return c.JSON(fiber.Map{"received": true})
	}

	if err := pc.Manager.MarkPaymentFailed(collabID, intent.ID); err != nil {
		pc.Logger.Printf("failed to record payment failure for collab %d: %v", collabID, err)
	}

	return c.JSON(fiber.Map{"received": true})
}

// GetTransactions lists the payment rows of a collaboration.
func (pc *PaymentController) GetTransactions(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid collaboration id",
		})
	}

	if _, err := pc.Manager.Get(actorFrom(c), uint(id)); err != nil {
		return lifecycleError(c, err)
	}

	var transactions []models.PaymentTransaction
	if err := pc.DB.Where("collaboration_id = ?", id).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch transactions",
		})
	}

	return c.JSON(transactions)
}

// paymentIntentReusable reports whether an earlier intent can still be
// confirmed by the buyer for the current price.
func paymentIntentReusable(intent *stripe.PaymentIntent, amountCents int64) bool {
	if intent == nil || intent.Amount != amountCents {
		return false
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresAction:
		return true
	}
	return false
}

func collabIDFromIntent(intent *stripe.PaymentIntent) (uint, bool) {
	raw, ok := intent.Metadata["collaboration_id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func errorIsTerminalForWebhook(err error) bool {
	return errors.Is(err, lifecycle.ErrInvalidState) ||
		errors.Is(err, lifecycle.ErrConflict) ||
		errors.Is(err, lifecycle.ErrNotFound)
}
