package queries

import (
	"context"
	"strings"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListOrdersQueryHandler reads order summaries straight from the orders table without
// loading aggregates.
type ListOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListOrdersQueryHandler(db *gorm.DB) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db}
}

// Handle restricts users to the orders they requested and dentists to the orders
// assigned to them; admins see everything.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)
	principal := query.Principal()
	switch principal.Role {
	case kernel.RoleUser:
		conditions = append(conditions, "o.requester_id = ?")
		args = append(args, principal.UserID.Bytes())
	case kernel.RoleDentist:
		conditions = append(conditions, "o.dentist_id = ?")
		args = append(args, principal.UserID.Bytes())
	}
	if status := query.Status(); status != nil {
		conditions = append(conditions, "o.status = ?")
		args = append(args, status.String())
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, query.Limit(), query.Offset())

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.requester_id,
			o.dentist_id,
			o.patient_name,
			o.status,
			o.payment_status,
			o.total,
			o.created_at,
			(SELECT COUNT(*) FROM order_items i WHERE i.order_id = o.id)
		FROM orders o
		`+where+`
		ORDER BY o.created_at DESC, o.id
		LIMIT ? OFFSET ?
	`, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]ListOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			resp                       ListOrdersQueryResponse
			id, requesterID, dentistID uuid.UUID
			status, paymentStatus      string
			total                      decimal.Decimal
		)

		if err = rows.Scan(
			&id,
			&requesterID,
			&dentistID,
			&resp.PatientName,
			&status,
			&paymentStatus,
			&total,
			&resp.CreatedAt,
			&resp.ItemCount,
		); err != nil {
			return nil, err
		}

		if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if resp.RequesterID, err = kernel.UUIDFromBytes(requesterID[:]); err != nil {
			return nil, err
		}
		if resp.DentistID, err = kernel.UUIDFromBytes(dentistID[:]); err != nil {
			return nil, err
		}
		if resp.Status, err = order.ParseStatus(status); err != nil {
			return nil, err
		}
		if resp.PaymentStatus, err = order.ParsePaymentStatus(paymentStatus); err != nil {
			return nil, err
		}
		if resp.Total, err = kernel.NewMoney(total); err != nil {
			return nil, err
		}
		resp.CreatedAt = resp.CreatedAt.UTC()

		orders = append(orders, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
