package queries

import (
	"context"

	"dentallab/internal/core/domain/model/order"
)

type GetOrderQueryHandler struct {
	orders OrderReader
	table  order.TransitionTable
}

func NewGetOrderQueryHandler(orders OrderReader, table order.TransitionTable) GetOrderQueryHandler {
	return GetOrderQueryHandler{orders: orders, table: table}
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	principal := query.Principal()
	o, err := loadAccessible(ctx, h.orders, principal, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp := GetOrderQueryResponse{
		ID:                 o.ID(),
		RequesterID:        o.RequesterID(),
		DentistID:          o.DentistID(),
		ClientID:           o.ClientID(),
		PatientName:        o.Patient().Name(),
		PatientSex:         o.Patient().Sex(),
		PatientAge:         o.Patient().Age(),
		Remark:             o.Remark(),
		Model:              o.Model(),
		Status:             o.Status(),
		PaymentStatus:      o.PaymentStatus(),
		PaymentMethod:      o.PaymentMethod(),
		TransactionRef:     o.TransactionRef(),
		Total:              o.Total(),
		AllowedTransitions: h.table.Targets(principal.Role, o.Status()),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}

	items := o.Items()
	resp.Items = make([]OrderItemResponse, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:        item.ID(),
			Category:  item.Category(),
			Subtype:   item.Subtype(),
			UnitPrice: item.UnitPrice(),
			Upper:     item.Upper(),
			Lower:     item.Lower(),
		})
	}

	files := o.VisibleFiles(principal)
	resp.Files = make([]OrderFileResponse, 0, len(files))
	for _, f := range files {
		resp.Files = append(resp.Files, OrderFileResponse{
			ID:           f.ID(),
			OriginalName: f.OriginalName(),
			MimeType:     f.MimeType(),
			Size:         f.Size(),
			URL:          f.URL(),
			UploaderRole: f.UploaderRole(),
			CreatedAt:    f.CreatedAt(),
		})
	}

	return resp, nil
}
