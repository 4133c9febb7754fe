package queries

import (
	"context"
)

type ListLedgerQueryHandler struct {
	orders OrderReader
	ledger LedgerReader
}

func NewListLedgerQueryHandler(orders OrderReader, ledger LedgerReader) ListLedgerQueryHandler {
	return ListLedgerQueryHandler{orders: orders, ledger: ledger}
}

// Handle returns the entries oldest first. The order must be within the principal's scope.
func (h ListLedgerQueryHandler) Handle(ctx context.Context, query ListLedgerQuery) ([]ListLedgerQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	if _, err := loadAccessible(ctx, h.orders, query.Principal(), query.OrderID()); err != nil {
		return nil, err
	}

	entries, err := h.ledger.ListByOrder(ctx, query.OrderID())
	if err != nil {
		return nil, err
	}

	resp := make([]ListLedgerQueryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ListLedgerQueryResponse{
			ID:            e.ID(),
			TransactionID: e.TransactionID(),
			Amount:        e.Amount(),
			Currency:      e.Currency(),
			Status:        e.Status(),
			CreatedAt:     e.CreatedAt(),
		})
	}

	return resp, nil
}
