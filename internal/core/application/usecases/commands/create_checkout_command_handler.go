package commands

import (
	"context"
	"fmt"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"
)

// CheckoutSettings holds the processor-independent checkout configuration.
type CheckoutSettings struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutCommandHandler prices unpaid orders and opens a checkout for their sum.
// Amounts leave the process through payment.ToMinorUnits, the inverse of the conversion
// applied to confirmations.
type CreateCheckoutCommandHandler struct {
	uowFactory OrderUoWFactory
	gateway    ports.PaymentGateway
	settings   CheckoutSettings
}

func NewCreateCheckoutCommandHandler(
	uowFactory OrderUoWFactory, gateway ports.PaymentGateway, settings CheckoutSettings,
) CreateCheckoutCommandHandler {
	return CreateCheckoutCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		settings:   settings,
	}
}

func (h *CreateCheckoutCommandHandler) Handle(ctx context.Context, cmd CreateCheckoutCommand) (payment.CheckoutSession, error) {
	if err := cmd.Validate(); err != nil {
		return payment.CheckoutSession{}, err
	}

	currency := cmd.Currency()
	if currency == "" {
		normalized, err := payment.NormalizeCurrency(h.settings.Currency)
		if err != nil {
			return payment.CheckoutSession{}, err
		}
		currency = normalized
	}

	total, err := h.unpaidTotal(ctx, cmd.Principal(), cmd.OrderIDs())
	if err != nil {
		return payment.CheckoutSession{}, err
	}

	amountMinor := payment.ToMinorUnits(total, currency)
	if amountMinor <= 0 {
		return payment.CheckoutSession{}, errs.NewValueIsInvalidErrorWithCause(
			"amount", fmt.Errorf("orders total %s %s", total, currency))
	}

	return h.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		OrderIDs:    cmd.OrderIDs(),
		AmountMinor: amountMinor,
		Currency:    currency,
		Description: describeCheckout(cmd.OrderIDs()),
		SuccessURL:  h.settings.SuccessURL,
		CancelURL:   h.settings.CancelURL,
	})
}

func (h *CreateCheckoutCommandHandler) unpaidTotal(
	ctx context.Context, principal kernel.Principal, ids []kernel.UUID,
) (kernel.Money, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return kernel.Money{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	totals := make([]kernel.Money, 0, len(ids))
	for _, id := range ids {
		o, err := loadAccessible(ctx, orderRepo, principal, id)
		if err != nil {
			return kernel.Money{}, err
		}
		if o.PaymentStatus() != order.PaymentUnpaid {
			return kernel.Money{}, errs.NewValueIsInvalidErrorWithCause(
				"order", fmt.Errorf("order %s payment status is %s", id, o.PaymentStatus()))
		}
		totals = append(totals, o.Total())
	}

	return kernel.SumMoney(totals...), nil
}

func describeCheckout(ids []kernel.UUID) string {
	if len(ids) == 1 {
		return "Order " + ids[0].String()
	}
	return fmt.Sprintf("%d orders", len(ids))
}
