package http

import (
	"fmt"
	"time"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/application/usecases/queries"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
)

type (
	ItemRequest struct {
		Category string `json:"category" validate:"max=64"`
		Subtype  string `json:"subtype"  validate:"max=64"`
		Upper    []int  `json:"upper"    validate:"max=16"`
		Lower    []int  `json:"lower"    validate:"max=16"`
	}

	CreateOrderRequest struct {
		DentistID   string        `json:"dentist_id"   validate:"required,uuid"`
		ClientID    string        `json:"client_id"    validate:"omitempty,uuid"`
		PatientName string        `json:"patient_name" validate:"required,max=255"`
		PatientSex  string        `json:"patient_sex"  validate:"required,max=32"`
		PatientAge  string        `json:"patient_age"  validate:"required,max=32"`
		Remark      string        `json:"remark"`
		Model       string        `json:"model"        validate:"max=255"`
		Items       []ItemRequest `json:"items"        validate:"required,min=1,dive"`
	}

	// UpdateOrderRequest is a partial update. Absent fields are left alone; a present
	// items array, even empty, replaces every item.
	UpdateOrderRequest struct {
		DentistID   *string        `json:"dentist_id"   validate:"omitempty,uuid"`
		ClientID    *string        `json:"client_id"    validate:"omitempty,uuid"`
		PatientName *string        `json:"patient_name" validate:"omitempty,max=255"`
		PatientSex  *string        `json:"patient_sex"  validate:"omitempty,max=32"`
		PatientAge  *string        `json:"patient_age"  validate:"omitempty,max=32"`
		Remark      *string        `json:"remark"`
		Model       *string        `json:"model"        validate:"omitempty,max=255"`
		Items       *[]ItemRequest `json:"items"        validate:"omitempty,dive"`
	}

	StatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	CheckoutRequest struct {
		OrderIDs []string `json:"order_ids" validate:"required,min=1,dive,uuid"`
		Currency string   `json:"currency"  validate:"omitempty,len=3"`
	}
)

func (r ItemRequest) spec() order.ItemSpec {
	return order.ItemSpec{Category: r.Category, Subtype: r.Subtype, Upper: r.Upper, Lower: r.Lower}
}

func itemSpecs(items []ItemRequest) []order.ItemSpec {
	specs := make([]order.ItemSpec, 0, len(items))
	for _, item := range items {
		specs = append(specs, item.spec())
	}
	return specs
}

func parseOptionalUUID(name string, raw *string) (*kernel.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := kernel.UUIDFromString(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &id, nil
}

func parseUUIDs(raw []string) ([]kernel.UUID, error) {
	ids := make([]kernel.UUID, 0, len(raw))
	for i, s := range raw {
		id, err := kernel.UUIDFromString(s)
		if err != nil {
			return nil, fmt.Errorf("order id %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r CreateOrderRequest) details() (commands.OrderDetails, error) {
	dentistID, err := kernel.UUIDFromString(r.DentistID)
	if err != nil {
		return commands.OrderDetails{}, fmt.Errorf("dentist_id: %w", err)
	}
	clientID, err := parseOptionalUUID("client_id", &r.ClientID)
	if err != nil {
		return commands.OrderDetails{}, err
	}
	return commands.OrderDetails{
		DentistID:   dentistID,
		ClientID:    clientID,
		PatientName: r.PatientName,
		PatientSex:  r.PatientSex,
		PatientAge:  r.PatientAge,
		Remark:      r.Remark,
		Model:       r.Model,
	}, nil
}

func (r UpdateOrderRequest) patch() (order.Patch, error) {
	dentistID, err := parseOptionalUUID("dentist_id", r.DentistID)
	if err != nil {
		return order.Patch{}, err
	}
	clientID, err := parseOptionalUUID("client_id", r.ClientID)
	if err != nil {
		return order.Patch{}, err
	}
	return order.Patch{
		PatientName: r.PatientName,
		PatientSex:  r.PatientSex,
		PatientAge:  r.PatientAge,
		Remark:      r.Remark,
		Model:       r.Model,
		DentistID:   dentistID,
		ClientID:    clientID,
	}, nil
}

// items returns nil when the request does not touch the items.
func (r UpdateOrderRequest) items() []order.ItemSpec {
	if r.Items == nil {
		return nil
	}
	return itemSpecs(*r.Items)
}

type (
	CreateOrderResponse struct {
		ID         kernel.UUID  `json:"id"`
		Total      kernel.Money `json:"total"`
		FileErrors string       `json:"file_errors,omitempty"`
	}

	OrderSummaryResponse struct {
		ID            kernel.UUID         `json:"id"`
		RequesterID   kernel.UUID         `json:"requester_id"`
		DentistID     kernel.UUID         `json:"dentist_id"`
		PatientName   string              `json:"patient_name"`
		Status        order.Status        `json:"status"`
		PaymentStatus order.PaymentStatus `json:"payment_status"`
		Total         kernel.Money        `json:"total"`
		ItemCount     int                 `json:"item_count"`
		CreatedAt     time.Time           `json:"created_at"`
	}

	ItemResponse struct {
		ID        kernel.UUID  `json:"id"`
		Category  string       `json:"category"`
		Subtype   string       `json:"subtype"`
		UnitPrice kernel.Money `json:"unit_price"`
		Upper     []int        `json:"upper"`
		Lower     []int        `json:"lower"`
	}

	FileResponse struct {
		ID           kernel.UUID `json:"id"`
		OriginalName string      `json:"original_name"`
		MimeType     string      `json:"mime_type"`
		Size         int64       `json:"size"`
		URL          string      `json:"url"`
		UploaderRole kernel.Role `json:"uploader_role"`
		CreatedAt    time.Time   `json:"created_at"`
	}

	OrderResponse struct {
		ID                 kernel.UUID         `json:"id"`
		RequesterID        kernel.UUID         `json:"requester_id"`
		DentistID          kernel.UUID         `json:"dentist_id"`
		ClientID           *kernel.UUID        `json:"client_id,omitempty"`
		PatientName        string              `json:"patient_name"`
		PatientSex         string              `json:"patient_sex"`
		PatientAge         string              `json:"patient_age"`
		Remark             string              `json:"remark"`
		Model              string              `json:"model"`
		Status             order.Status        `json:"status"`
		PaymentStatus      order.PaymentStatus `json:"payment_status"`
		PaymentMethod      string              `json:"payment_method,omitempty"`
		TransactionRef     string              `json:"transaction_ref,omitempty"`
		Total              kernel.Money        `json:"total"`
		Items              []ItemResponse      `json:"items"`
		Files              []FileResponse      `json:"files"`
		AllowedTransitions []order.Status      `json:"allowed_transitions"`
		CreatedAt          time.Time           `json:"created_at"`
		UpdatedAt          time.Time           `json:"updated_at"`
	}

	LedgerEntryResponse struct {
		ID            kernel.UUID         `json:"id"`
		TransactionID string              `json:"transaction_id"`
		Amount        kernel.Money        `json:"amount"`
		Currency      string              `json:"currency"`
		Status        payment.EntryStatus `json:"status"`
		CreatedAt     time.Time           `json:"created_at"`
	}

	CheckoutResponse struct {
		SessionID string `json:"session_id"`
		URL       string `json:"url"`
	}

	InvoiceOrderResponse struct {
		OrderID        kernel.UUID         `json:"order_id"`
		PatientName    string              `json:"patient_name"`
		Status         order.Status        `json:"status"`
		PaymentStatus  order.PaymentStatus `json:"payment_status"`
		TransactionRef string              `json:"transaction_ref,omitempty"`
		Items          []ItemResponse      `json:"items"`
		Total          kernel.Money        `json:"total"`
		CreatedAt      time.Time           `json:"created_at"`
	}

	InvoiceResponse struct {
		Currency string                 `json:"currency"`
		IssuedAt time.Time              `json:"issued_at"`
		Orders   []InvoiceOrderResponse `json:"orders"`
		Total    kernel.Money           `json:"total"`
	}

	WebhookResponse struct {
		Received  bool `json:"received"`
		Applied   int  `json:"applied"`
		Failed    int  `json:"failed"`
		Duplicate int  `json:"duplicate"`
		Unknown   int  `json:"unknown"`
	}
)

func toItemResponses(items []queries.OrderItemResponse) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ItemResponse{
			ID:        item.ID,
			Category:  item.Category,
			Subtype:   item.Subtype,
			UnitPrice: item.UnitPrice,
			Upper:     item.Upper,
			Lower:     item.Lower,
		})
	}
	return out
}

func toOrderResponse(o queries.GetOrderQueryResponse) OrderResponse {
	files := make([]FileResponse, 0, len(o.Files))
	for _, f := range o.Files {
		files = append(files, FileResponse{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			MimeType:     f.MimeType,
			Size:         f.Size,
			URL:          f.URL,
			UploaderRole: f.UploaderRole,
			CreatedAt:    f.CreatedAt,
		})
	}

	return OrderResponse{
		ID:                 o.ID,
		RequesterID:        o.RequesterID,
		DentistID:          o.DentistID,
		ClientID:           o.ClientID,
		PatientName:        o.PatientName,
		PatientSex:         o.PatientSex,
		PatientAge:         o.PatientAge,
		Remark:             o.Remark,
		Model:              o.Model,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentMethod:      o.PaymentMethod,
		TransactionRef:     o.TransactionRef,
		Total:              o.Total,
		Items:              toItemResponses(o.Items),
		Files:              files,
		AllowedTransitions: o.AllowedTransitions,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toInvoiceResponse(inv queries.GetInvoiceQueryResponse) InvoiceResponse {
	orders := make([]InvoiceOrderResponse, 0, len(inv.Orders))
	for _, o := range inv.Orders {
		orders = append(orders, InvoiceOrderResponse{
			OrderID:        o.OrderID,
			PatientName:    o.PatientName,
			Status:         o.Status,
			PaymentStatus:  o.PaymentStatus,
			TransactionRef: o.TransactionRef,
			Items:          toItemResponses(o.Items),
			Total:          o.Total,
			CreatedAt:      o.CreatedAt,
		})
	}
	return InvoiceResponse{
		Currency: inv.Currency,
		IssuedAt: inv.IssuedAt,
		Orders:   orders,
		Total:    inv.Total,
	}
}
