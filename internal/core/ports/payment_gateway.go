package ports

import (
	"context"

	"dentallab/internal/core/domain/model/payment"
)

// PaymentGateway is the external payment processor.
type PaymentGateway interface {
	// Name identifies the processor; it is stored as the orders' payment method.
	Name() string

	// CreateCheckout opens a hosted payment page for the request.
	CreateCheckout(ctx context.Context, request payment.CheckoutRequest) (payment.CheckoutSession, error)

	// ParseConfirmation verifies the signature of a webhook delivery and decodes it.
	// Deliveries that are not payment confirmations return payment.ErrIgnoredEvent.
	ParseConfirmation(payload []byte, signatureHeader string) (payment.Confirmation, error)
}
