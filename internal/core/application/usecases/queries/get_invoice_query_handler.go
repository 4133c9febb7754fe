package queries

import (
	"context"
	"time"

	"dentallab/internal/core/domain/model/kernel"
)

type GetInvoiceQueryHandler struct {
	orders   OrderReader
	currency string
	now      func() time.Time
}

func NewGetInvoiceQueryHandler(orders OrderReader, currency string) GetInvoiceQueryHandler {
	return GetInvoiceQueryHandler{orders: orders, currency: currency, now: time.Now}
}

// Handle fails with NotFound as soon as one of the orders is missing or out of scope.
func (h GetInvoiceQueryHandler) Handle(ctx context.Context, query GetInvoiceQuery) (GetInvoiceQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetInvoiceQueryResponse{}, err
	}

	ids := query.OrderIDs()
	resp := GetInvoiceQueryResponse{
		Currency: h.currency,
		IssuedAt: h.now().UTC(),
		Orders:   make([]InvoiceOrder, 0, len(ids)),
	}
	totals := make([]kernel.Money, 0, len(ids))

	for _, id := range ids {
		o, err := loadAccessible(ctx, h.orders, query.Principal(), id)
		if err != nil {
			return GetInvoiceQueryResponse{}, err
		}

		line := InvoiceOrder{
			OrderID:        o.ID(),
			PatientName:    o.Patient().Name(),
			Status:         o.Status(),
			PaymentStatus:  o.PaymentStatus(),
			TransactionRef: o.TransactionRef(),
			Total:          o.Total(),
			CreatedAt:      o.CreatedAt(),
		}
		for _, item := range o.Items() {
			line.Items = append(line.Items, OrderItemResponse{
				ID:        item.ID(),
				Category:  item.Category(),
				Subtype:   item.Subtype(),
				UnitPrice: item.UnitPrice(),
				Upper:     item.Upper(),
				Lower:     item.Lower(),
			})
		}

		resp.Orders = append(resp.Orders, line)
		totals = append(totals, o.Total())
	}

	resp.Total = kernel.SumMoney(totals...)
	return resp, nil
}
