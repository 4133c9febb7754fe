// Package ports defines the contracts between the order lifecycle core and the
// infrastructure that stores, pays for and publishes orders.
package ports

import (
	"context"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
)

// OrderFilter narrows List. Nil fields do not filter.
type OrderFilter struct {
	RequesterID *kernel.UUID
	DentistID   *kernel.UUID
	Status      *order.Status
	Limit       int
	Offset      int
}

// ScopedTo returns the filter restricted to what principal may see: requesters their
// own orders, dentists the orders assigned to them, admins everything.
func (f OrderFilter) ScopedTo(principal kernel.Principal) OrderFilter {
	switch principal.Role {
	case kernel.RoleUser:
		id := principal.UserID
		f.RequesterID = &id
	case kernel.RoleDentist:
		id := principal.UserID
		f.DentistID = &id
	}
	return f
}

// OrderRepository defines the persistence contract for order aggregates, including
// their work items and file metadata.
type OrderRepository interface {
	// Add persists a new order with its items and files.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order. It compares the version the order was
	// loaded with and returns errs.VersionIsInvalidError when another writer got there
	// first. Items are replaced as a whole; new files are appended.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves the complete order or errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// List returns orders matching filter, newest first.
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// Delete removes the order with its items and file metadata.
	Delete(ctx context.Context, id kernel.UUID) error
}
