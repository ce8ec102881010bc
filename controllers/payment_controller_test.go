package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
)

func TestPaymentIntentReusable(t *testing.T) {
	tests := []struct {
		name   string
		intent *stripe.PaymentIntent
		amount int64
		want   bool
	}{
		{
			name:   "open intent at the right amount",
			intent: &stripe.PaymentIntent{Amount: 50000, Status: stripe.PaymentIntentStatusRequiresPaymentMethod},
			amount: 50000,
			want:   true,
		},
		{
			name:   "awaiting confirmation",
			intent: &stripe.PaymentIntent{Amount: 50000, Status: stripe.PaymentIntentStatusRequiresConfirmation},
			amount: 50000,
			want:   true,
		},
		{
			name:   "3DS challenge pending",
			intent: &stripe.PaymentIntent{Amount: 50000, Status: stripe.PaymentIntentStatusRequiresAction},
			amount: 50000,
			want:   true,
		},
		{
			name:   "already succeeded",
			intent: &stripe.PaymentIntent{Amount: 50000, Status: stripe.PaymentIntentStatusSucceeded},
			amount: 50000,
			want:   false,
		},
		{
			name:   "canceled",
			intent: &stripe.PaymentIntent{Amount: 50000, Status: stripe.PaymentIntentStatusCanceled},
			amount: 50000,
			want:   false,
		},
		{
			name:   "price changed since the intent was opened",
			intent: &stripe.PaymentIntent{Amount: 40000, Status: stripe.PaymentIntentStatusRequiresPaymentMethod},
			amount: 50000,
			want:   false,
		},
		{
			name:   "no intent",
			intent: nil,
			amount: 50000,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paymentIntentReusable(tt.intent, tt.amount))
		})
	}
}

func TestCollabIDFromIntent(t *testing.T) {
	id, ok := collabIDFromIntent(&stripe.PaymentIntent{
		Metadata: map[string]string{"collaboration_id": "42"},
	})
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = collabIDFromIntent(&stripe.PaymentIntent{Metadata: map[string]string{}})
	assert.False(t, ok)

	_, ok = collabIDFromIntent(&stripe.PaymentIntent{
		Metadata: map[string]string{"collaboration_id": "0"},
	})
	assert.False(t, ok)

	_, ok = collabIDFromIntent(&stripe.PaymentIntent{
		Metadata: map[string]string{"collaboration_id": "not-a-number"},
	})
	assert.False(t, ok)
}
