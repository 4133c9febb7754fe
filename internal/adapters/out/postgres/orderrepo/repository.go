package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker receives every saved order so the unit of work can flush its
// events on commit.
type aggregateTracker interface {
	TrackAggregate(aggregate *order.Order)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order with its items and files.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return fmt.Errorf("insert order %s: %w", aggregate.ID(), err)
	}

	aggregate.SetVersion(dto.Version)
	r.tracker.TrackAggregate(aggregate)
	return nil
}

// Update writes the order row if nobody else changed it since it was loaded, then
// replaces its items and appends newly registered files.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	dto := fromDomain(aggregate)
	nextVersion := aggregate.Version() + 1

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Updates(map[string]any{
			"dentist_id":      dto.DentistID,
			"client_id":       dto.ClientID,
			"patient_name":    dto.PatientName,
			"patient_sex":     dto.PatientSex,
			"patient_age":     dto.PatientAge,
			"remark":          dto.Remark,
			"model":           dto.Model,
			"total":           dto.Total,
			"status":          dto.Status,
			"payment_status":  dto.PaymentStatus,
			"payment_method":  dto.PaymentMethod,
			"transaction_ref": dto.TransactionRef,
			"updated_at":      dto.UpdatedAt,
			"version":         nextVersion,
		})
	if result.Error != nil {
		return fmt.Errorf("update order %s: %w", aggregate.ID(), result.Error)
	}
	if result.RowsAffected == 0 {
		return r.conflictOrMissing(ctx, aggregate.ID())
	}

	if err := db.Where("order_id = ?", dto.ID).Delete(&WorkItemDTO{}).Error; err != nil {
		return fmt.Errorf("delete items of order %s: %w", aggregate.ID(), err)
	}
	if len(dto.Items) > 0 {
		if err := db.Create(&dto.Items).Error; err != nil {
			return fmt.Errorf("insert items of order %s: %w", aggregate.ID(), err)
		}
	}

	if pending := aggregate.PendingFiles(); len(pending) > 0 {
		offset := len(dto.Files) - len(pending)
		files := make([]FileDTO, 0, len(pending))
		for i, f := range pending {
			files = append(files, fileFromDomain(dto.ID, offset+i, f))
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&files).Error; err != nil {
			return fmt.Errorf("insert files of order %s: %w", aggregate.ID(), err)
		}
	}

	aggregate.SetVersion(nextVersion)
	r.tracker.TrackAggregate(aggregate)
	return nil
}

func (r *GormOrderRepository) conflictOrMissing(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return errs.NewVersionIsInvalidError("order " + id.String())
}

// Get retrieves an order by ID with its items and files.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.withChildren(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// List returns orders matching filter, newest first.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	query := r.withChildren(ctx).Order("created_at DESC").Order("id")
	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", filter.RequesterID.Bytes())
	}
	if filter.DentistID != nil {
		query = query.Where("dentist_id = ?", filter.DentistID.Bytes())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// Delete removes the order, its items and its file metadata. Blobs are left alone.
func (r *GormOrderRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id.Bytes()).Delete(&WorkItemDTO{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id.Bytes()).Delete(&FileDTO{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id.Bytes()).Delete(&OrderDTO{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	return nil
}

func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}
