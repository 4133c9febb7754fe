package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ParseConfirmation verifies the Stripe-Signature header and turns the event into a
// confirmation. Completed checkout sessions and succeeded payment intents confirm a
// payment; failed payment intents record a failure. Both successes of one payment share
// the payment intent id, so the ledger sees them as one transaction.
func (g *Gateway) ParseConfirmation(payload []byte, signatureHeader string) (payment.Confirmation, error) {
	err := webhook.ValidatePayloadWithTolerance(payload, signatureHeader, g.cfg.WebhookSecret, g.cfg.Tolerance)
	if err != nil {
		return payment.Confirmation{}, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	var ev stripego.Event
	if err = json.Unmarshal(payload, &ev); err != nil {
		return payment.Confirmation{}, fmt.Errorf("%w: malformed event: %v", payment.ErrIgnoredEvent, err)
	}
	if ev.Data == nil {
		return payment.Confirmation{}, fmt.Errorf("%w: %s has no data", payment.ErrIgnoredEvent, ev.Type)
	}

	switch ev.Type {
	case stripego.EventTypeCheckoutSessionCompleted:
		var cs stripego.CheckoutSession
		if err = json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return payment.Confirmation{}, fmt.Errorf("%w: malformed session: %v", payment.ErrIgnoredEvent, err)
		}
		if cs.PaymentStatus != stripego.CheckoutSessionPaymentStatusPaid {
			return payment.Confirmation{}, fmt.Errorf("%w: session %s is %s", payment.ErrIgnoredEvent, cs.ID, cs.PaymentStatus)
		}
		txID := cs.ID
		if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
			txID = cs.PaymentIntent.ID
		}
		return confirmation(txID, cs.AmountTotal, string(cs.Currency), cs.Metadata, payment.OutcomeSucceeded)

	case stripego.EventTypePaymentIntentSucceeded, stripego.EventTypePaymentIntentPaymentFailed:
		var intent stripego.PaymentIntent
		if err = json.Unmarshal(ev.Data.Raw, &intent); err != nil {
			return payment.Confirmation{}, fmt.Errorf("%w: malformed payment intent: %v", payment.ErrIgnoredEvent, err)
		}
		outcome := payment.OutcomeSucceeded
		if ev.Type == stripego.EventTypePaymentIntentPaymentFailed {
			outcome = payment.OutcomeFailed
		}
		return confirmation(intent.ID, intent.Amount, string(intent.Currency), intent.Metadata, outcome)

	default:
		return payment.Confirmation{}, fmt.Errorf("%w: %s", payment.ErrIgnoredEvent, ev.Type)
	}
}

// confirmation ignores payments that were not opened by this service.
func confirmation(
	txID string, amount int64, currency string, metadata map[string]string, outcome payment.Outcome,
) (payment.Confirmation, error) {
	raw := strings.TrimSpace(metadata[orderIDsKey])
	if raw == "" {
		return payment.Confirmation{}, fmt.Errorf("%w: %s carries no order ids", payment.ErrIgnoredEvent, txID)
	}

	parts := strings.Split(raw, ",")
	ids := make([]kernel.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := kernel.UUIDFromString(strings.TrimSpace(part))
		if err != nil {
			return payment.Confirmation{}, fmt.Errorf("%w: %s has a malformed order id: %v", payment.ErrIgnoredEvent, txID, err)
		}
		ids = append(ids, id)
	}

	return payment.NewConfirmation(txID, amount, currency, ids, outcome, Name)
}
