package stripe

import (
	"fmt"
	"testing"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const secret = "whsec_test"

func newWebhookGateway() *Gateway {
	return New(Config{WebhookSecret: secret}, nil, discard())
}

func signed(key string, at time.Time, payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    key,
		Timestamp: at,
	}).Header
}

func TestParseConfirmation_CheckoutCompleted(t *testing.T) {
	now := time.Now()
	g := newWebhookGateway()
	a, b := kernel.NewUUID(), kernel.NewUUID()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"payment_intent": "pi_3N",
			"payment_status": "paid",
			"amount_total": 2160,
			"currency": "eur",
			"metadata": {"order_ids": "%s,%s"}
		}}
	}`, a, b))

	c, err := g.ParseConfirmation(payload, signed(secret, now, payload))

	require.NoError(t, err)
	assert.Equal(t, "pi_3N", c.TransactionID)
	assert.Equal(t, int64(2160), c.AmountMinor)
	assert.Equal(t, "EUR", c.Currency)
	assert.Equal(t, []kernel.UUID{a, b}, c.OrderIDs)
	assert.Equal(t, payment.OutcomeSucceeded, c.Outcome)
	assert.Equal(t, Name, c.Method)
}

func TestParseConfirmation_PaymentFailed(t *testing.T) {
	now := time.Now()
	g := newWebhookGateway()
	id := kernel.NewUUID()
	payload := []byte(fmt.Sprintf(`{"type":"payment_intent.payment_failed","data":{"object":{
		"id":"pi_declined","amount":600,"currency":"eur","metadata":{"order_ids":"%s"}}}}`, id))

	c, err := g.ParseConfirmation(payload, signed(secret, now, payload))

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeFailed, c.Outcome)
	assert.Equal(t, "pi_declined", c.TransactionID)
}

func TestParseConfirmation_Ignored(t *testing.T) {
	now := time.Now()
	g := newWebhookGateway()

	tests := map[string]string{
		"other event":       `{"type":"customer.created","data":{"object":{}}}`,
		"unpaid session":    `{"type":"checkout.session.completed","data":{"object":{"id":"cs","payment_status":"unpaid","metadata":{"order_ids":"x"}}}}`,
		"foreign payment":   `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi","amount":1,"currency":"eur"}}}`,
		"malformed id":      `{"type":"payment_intent.succeeded","data":{"object":{"id":"pi","amount":1,"currency":"eur","metadata":{"order_ids":"nope"}}}}`,
		"malformed payload": `{"type":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			payload := []byte(body)
			_, err := g.ParseConfirmation(payload, signed(secret, now, payload))
			assert.ErrorIs(t, err, payment.ErrIgnoredEvent)
		})
	}
}

func TestParseConfirmation_RejectsBadSignatures(t *testing.T) {
	now := time.Now()
	g := newWebhookGateway()
	payload := []byte(`{"type":"customer.created"}`)

	tests := map[string]string{
		"empty header":   "",
		"wrong secret":   signed("whsec_other", now, payload),
		"stale":          signed(secret, now.Add(-10*time.Minute), payload),
		"tampered":       signed(secret, now, []byte(`{"type":"other"}`)),
		"bad timestamp":  "t=abc,v1=00",
		"signature only": "v1=00ff",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := g.ParseConfirmation(payload, header)
			assert.ErrorIs(t, err, payment.ErrInvalidSignature)
		})
	}
}

func TestParseConfirmation_AcceptsAnyMatchingSignature(t *testing.T) {
	now := time.Now()
	g := newWebhookGateway()
	payload := []byte(`{"type":"customer.created"}`)
	header := fmt.Sprintf("%s,v1=%s", signed(secret, now, payload), "deadbeef")

	_, err := g.ParseConfirmation(payload, header)

	assert.ErrorIs(t, err, payment.ErrIgnoredEvent)
}
