// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order aggregate, storing the
// order row together with its work items and file metadata.
package orderrepo

import (
	"database/sql/driver"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Status tokens are stored verbatim; version backs the compare-and-swap in Update.
type OrderDTO struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RequesterID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	DentistID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClientID       *uuid.UUID      `gorm:"type:uuid"`
	PatientName    string          `gorm:"type:varchar(255);not null"`
	PatientSex     string          `gorm:"type:varchar(32);not null"`
	PatientAge     string          `gorm:"type:varchar(32);not null"`
	Remark         string          `gorm:"type:text"`
	Model          string          `gorm:"type:varchar(255)"`
	Total          decimal.Decimal `gorm:"type:numeric;not null"`
	Status         string          `gorm:"type:varchar(32);not null;index"`
	PaymentStatus  string          `gorm:"type:varchar(32);not null"`
	PaymentMethod  string          `gorm:"type:varchar(64)"`
	TransactionRef string          `gorm:"type:varchar(255);index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime:false;not null"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime:false;not null"`
	Version        int64           `gorm:"not null"`
	Items          []WorkItemDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Files          []FileDTO       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// WorkItemDTO is one priced item. Position keeps submission order.
type WorkItemDTO struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	Category  string          `gorm:"type:varchar(64)"`
	Subtype   string          `gorm:"type:varchar(64)"`
	UnitPrice decimal.Decimal `gorm:"type:numeric;not null"`
	Upper     ToothPositions
	Lower     ToothPositions
}

func (WorkItemDTO) TableName() string {
	return "order_items"
}

// FileDTO is the metadata of one uploaded file.
type FileDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Position     int       `gorm:"not null"`
	StoredName   string    `gorm:"type:varchar(255);not null"`
	OriginalName string    `gorm:"type:varchar(255)"`
	MimeType     string    `gorm:"type:varchar(127)"`
	Size         int64     `gorm:"not null"`
	URL          string    `gorm:"type:varchar(1024);not null"`
	UploaderRole string    `gorm:"type:varchar(16);not null"`
	UploaderID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;not null"`
}

func (FileDTO) TableName() string {
	return "order_files"
}

// ToothPositions is stored as a native integer array on PostgreSQL and as its text
// form elsewhere.
type ToothPositions pq.Int64Array

func (ToothPositions) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "smallint[]"
	}
	return "text"
}

func (t ToothPositions) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return pq.Int64Array(t).Value()
}

func (t *ToothPositions) Scan(src any) error {
	return (*pq.Int64Array)(t).Scan(src)
}

func toothPositions(values []int) ToothPositions {
	out := make(ToothPositions, 0, len(values))
	for _, v := range values {
		out = append(out, int64(v))
	}
	return out
}

func (t ToothPositions) ints() []int {
	out := make([]int, 0, len(t))
	for _, v := range t {
		out = append(out, int(v))
	}
	return out
}

// fromDomain converts an order aggregate to its database representation.
func fromDomain(o *order.Order) OrderDTO {
	var clientID *uuid.UUID
	if id := o.ClientID(); id != nil {
		raw := id.Bytes()
		clientID = &raw
	}

	orderID := o.ID().Bytes()
	items := make([]WorkItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		items = append(items, WorkItemDTO{
			ID:        item.ID().Bytes(),
			OrderID:   orderID,
			Position:  i,
			Category:  item.Category(),
			Subtype:   item.Subtype(),
			UnitPrice: item.UnitPrice().Decimal(),
			Upper:     toothPositions(item.Upper()),
			Lower:     toothPositions(item.Lower()),
		})
	}

	files := make([]FileDTO, 0, len(o.Files()))
	for i, f := range o.Files() {
		files = append(files, fileFromDomain(orderID, i, f))
	}

	return OrderDTO{
		ID:             orderID,
		RequesterID:    o.RequesterID().Bytes(),
		DentistID:      o.DentistID().Bytes(),
		ClientID:       clientID,
		PatientName:    o.Patient().Name(),
		PatientSex:     o.Patient().Sex(),
		PatientAge:     o.Patient().Age(),
		Remark:         o.Remark(),
		Model:          o.Model(),
		Total:          o.Total().Decimal(),
		Status:         o.Status().String(),
		PaymentStatus:  o.PaymentStatus().String(),
		PaymentMethod:  o.PaymentMethod(),
		TransactionRef: o.TransactionRef(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
		Version:        o.Version(),
		Items:          items,
		Files:          files,
	}
}

func fileFromDomain(orderID uuid.UUID, position int, f order.UploadedFile) FileDTO {
	return FileDTO{
		ID:           f.ID().Bytes(),
		OrderID:      orderID,
		Position:     position,
		StoredName:   f.StoredName(),
		OriginalName: f.OriginalName(),
		MimeType:     f.MimeType(),
		Size:         f.Size(),
		URL:          f.URL(),
		UploaderRole: f.UploaderRole().String(),
		UploaderID:   f.UploaderID().Bytes(),
		CreatedAt:    f.CreatedAt(),
	}
}

// toDomain rebuilds the aggregate through order.RestoreOrder. Items and files must be
// preloaded in position order.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	requesterID, err := kernel.UUIDFromBytes(dto.RequesterID[:])
	if err != nil {
		return nil, err
	}
	dentistID, err := kernel.UUIDFromBytes(dto.DentistID[:])
	if err != nil {
		return nil, err
	}

	var clientID *kernel.UUID
	if dto.ClientID != nil {
		cID, clientErr := kernel.UUIDFromBytes((*dto.ClientID)[:])
		if clientErr != nil {
			return nil, clientErr
		}
		clientID = &cID
	}

	patient, err := order.NewPatient(dto.PatientName, dto.PatientSex, dto.PatientAge)
	if err != nil {
		return nil, err
	}

	items := make([]order.WorkItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	files := make([]order.UploadedFile, 0, len(dto.Files))
	for _, fileDTO := range dto.Files {
		f, fileErr := fileToDomain(fileDTO)
		if fileErr != nil {
			return nil, fileErr
		}
		files = append(files, f)
	}

	return order.RestoreOrder(order.Snapshot{
		ID:             id,
		RequesterID:    requesterID,
		DentistID:      dentistID,
		ClientID:       clientID,
		Patient:        patient,
		Remark:         dto.Remark,
		Model:          dto.Model,
		Items:          items,
		Files:          files,
		Status:         order.Status(dto.Status),
		PaymentStatus:  order.PaymentStatus(dto.PaymentStatus),
		PaymentMethod:  dto.PaymentMethod,
		TransactionRef: dto.TransactionRef,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
		Version:        dto.Version,
	})
}

func itemToDomain(dto WorkItemDTO) (order.WorkItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.WorkItem{}, err
	}
	price, err := kernel.NewMoney(dto.UnitPrice)
	if err != nil {
		return order.WorkItem{}, err
	}
	return order.RestoreWorkItem(id, dto.Category, dto.Subtype, price, dto.Upper.ints(), dto.Lower.ints())
}

func fileToDomain(dto FileDTO) (order.UploadedFile, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.UploadedFile{}, err
	}
	uploaderID, err := kernel.UUIDFromBytes(dto.UploaderID[:])
	if err != nil {
		return order.UploadedFile{}, err
	}
	return order.RestoreUploadedFile(id, order.FileParams{
		StoredName:   dto.StoredName,
		OriginalName: dto.OriginalName,
		MimeType:     dto.MimeType,
		Size:         dto.Size,
		URL:          dto.URL,
		UploaderRole: kernel.Role(dto.UploaderRole),
		UploaderID:   uploaderID,
	}, dto.CreatedAt)
}
