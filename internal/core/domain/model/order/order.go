package order

import (
	"errors"
	"strings"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Patient describes who the work is for. The values are free-form and only checked for
// presence.
type Patient struct {
	name string
	sex  string
	age  string
}

// NewPatient trims every field and rejects blanks.
func NewPatient(name, sex, age string) (Patient, error) {
	name, sex, age = strings.TrimSpace(name), strings.TrimSpace(sex), strings.TrimSpace(age)
	if err := errors.Join(
		requireText("patient name", name),
		requireText("patient sex", sex),
		requireText("patient age", age),
	); err != nil {
		return Patient{}, err
	}
	return Patient{name: name, sex: sex, age: age}, nil
}

func (p Patient) Name() string { return p.name }
func (p Patient) Sex() string  { return p.sex }
func (p Patient) Age() string  { return p.age }

// CreateParams carries the metadata of a new order.
type CreateParams struct {
	RequesterID kernel.UUID
	DentistID   kernel.UUID
	ClientID    *kernel.UUID
	Patient     Patient
	Remark      string
	Model       string
}

// Order is the aggregate root of one fabrication order. It owns its work items and
// file registry, and keeps the total equal to the sum of the current item prices.
//
// Order follows these invariants:
//   - Must have a valid identifier, requester and assigned dentist
//   - Patient name, sex and age are never blank
//   - A newly created order has at least one work item
//   - Status changes only through StateMachine
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id          kernel.UUID
	requesterID kernel.UUID
	dentistID   kernel.UUID
	clientID    *kernel.UUID

	patient Patient
	remark  string
	model   string

	items ItemSet
	files FileRegistry

	status         Status
	paymentStatus  PaymentStatus
	paymentMethod  string
	transactionRef string

	createdAt time.Time
	updatedAt time.Time

	// version is the row version the order was loaded with; storage compares it on save.
	version int64

	events []Event

	isConstructed bool
}

// NewOrder creates a submitted order (status en_attente, unpaid) whose items are priced
// against table. An empty specs list is rejected.
//
// Example:
//
//	patient, _ := order.NewPatient("Jane Doe", "F", "42")
//	o, err := order.NewOrder(kernel.NewUUID(), order.CreateParams{
//	    RequesterID: userID,
//	    DentistID:   dentistID,
//	    Patient:     patient,
//	}, pricing.DefaultTable(), []order.ItemSpec{{Category: "Conjointe", Subtype: "Couronne", Upper: []int{11}}})
func NewOrder(id kernel.UUID, params CreateParams, table pricing.Table, specs []ItemSpec) (*Order, error) {
	now := time.Now().UTC()
	o := &Order{
		status:        StatusPending,
		paymentStatus: PaymentUnpaid,
		remark:        params.Remark,
		model:         params.Model,
		clientID:      params.ClientID,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	var itemsErr error
	if len(specs) == 0 {
		itemsErr = errs.NewValueIsRequiredError("items")
	} else {
		_, _, itemsErr = o.items.ReplaceAll(table, specs)
	}

	if err := errors.Join(
		o.setID(id),
		o.setRequester(params.RequesterID),
		o.setDentist(params.DentistID),
		o.setClient(params.ClientID),
		o.setPatient(params.Patient),
		itemsErr,
	); err != nil {
		return nil, err
	}

	o.record(EventCreated, "")
	return o, nil
}

// Snapshot is the persisted state of an order.
type Snapshot struct {
	ID             kernel.UUID
	RequesterID    kernel.UUID
	DentistID      kernel.UUID
	ClientID       *kernel.UUID
	Patient        Patient
	Remark         string
	Model          string
	Items          []WorkItem
	Files          []UploadedFile
	Status         Status
	PaymentStatus  PaymentStatus
	PaymentMethod  string
	TransactionRef string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
}

// RestoreOrder rebuilds an order loaded from storage. Unlike NewOrder it accepts an
// empty item list, since updates may leave an order itemless.
func RestoreOrder(s Snapshot) (*Order, error) {
	for _, item := range s.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	for _, file := range s.Files {
		if err := file.Validate(); err != nil {
			return nil, err
		}
	}

	o := &Order{
		remark:         s.Remark,
		model:          s.Model,
		items:          ItemSet{items: append([]WorkItem(nil), s.Items...)},
		files:          FileRegistry{files: append([]UploadedFile(nil), s.Files...)},
		paymentMethod:  s.PaymentMethod,
		transactionRef: s.TransactionRef,
		createdAt:      s.CreatedAt.UTC(),
		updatedAt:      s.UpdatedAt.UTC(),
		version:        s.Version,
		isConstructed:  true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setRequester(s.RequesterID),
		o.setDentist(s.DentistID),
		o.setClient(s.ClientID),
		o.setPatient(s.Patient),
		s.Status.Validate(),
		s.PaymentStatus.Validate(),
	); err != nil {
		return nil, err
	}
	o.status = s.Status
	o.paymentStatus = s.PaymentStatus

	return o, nil
}

// Validate ensures the Order instance was properly constructed through NewOrder or
// RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID              { return o.id }
func (o *Order) RequesterID() kernel.UUID     { return o.requesterID }
func (o *Order) DentistID() kernel.UUID       { return o.dentistID }
func (o *Order) ClientID() *kernel.UUID       { return o.clientID }
func (o *Order) Patient() Patient             { return o.patient }
func (o *Order) Remark() string               { return o.remark }
func (o *Order) Model() string                { return o.model }
func (o *Order) Status() Status               { return o.status }
func (o *Order) PaymentStatus() PaymentStatus { return o.paymentStatus }
func (o *Order) PaymentMethod() string        { return o.paymentMethod }
func (o *Order) TransactionRef() string       { return o.transactionRef }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }
func (o *Order) Version() int64               { return o.version }

// Items returns the current work items.
func (o *Order) Items() []WorkItem {
	return o.items.Items()
}

// Total is always the sum of the current item unit prices.
func (o *Order) Total() kernel.Money {
	return o.items.Subtotal()
}

// Files returns every registered file regardless of viewer.
func (o *Order) Files() []UploadedFile {
	return o.files.All()
}

// PendingFiles returns files registered since the order was loaded or last saved.
func (o *Order) PendingFiles() []UploadedFile {
	return o.files.Pending()
}

// VisibleFiles returns the files the principal may see at the current status.
func (o *Order) VisibleFiles(principal kernel.Principal) []UploadedFile {
	return o.files.VisibleTo(principal.Role, principal.UserID, o.status)
}

// AccessibleBy reports whether the principal may see the order at all: admins see every
// order, requesters their own and dentists the ones assigned to them.
func (o *Order) AccessibleBy(principal kernel.Principal) bool {
	switch principal.Role {
	case kernel.RoleAdmin:
		return true
	case kernel.RoleUser:
		return o.requesterID.IsEqual(principal.UserID)
	case kernel.RoleDentist:
		return o.dentistID.IsEqual(principal.UserID)
	default:
		return false
	}
}

// ReplaceItems discards the current items and prices specs against table. An empty
// list is accepted and leaves the order itemless with a zero total.
func (o *Order) ReplaceItems(table pricing.Table, specs []ItemSpec) error {
	if _, _, err := o.items.ReplaceAll(table, specs); err != nil {
		return err
	}
	o.touch()
	o.record(EventItemsReplaced, o.status)
	return nil
}

// ApplyPatch validates every present field before changing any of them.
func (o *Order) ApplyPatch(p Patch) error {
	if err := p.validate(); err != nil {
		return err
	}
	if p.IsEmpty() {
		return nil
	}

	if p.PatientName != nil {
		o.patient.name = strings.TrimSpace(*p.PatientName)
	}
	if p.PatientSex != nil {
		o.patient.sex = strings.TrimSpace(*p.PatientSex)
	}
	if p.PatientAge != nil {
		o.patient.age = strings.TrimSpace(*p.PatientAge)
	}
	if p.Remark != nil {
		o.remark = *p.Remark
	}
	if p.Model != nil {
		o.model = *p.Model
	}
	if p.DentistID != nil {
		o.dentistID = *p.DentistID
	}
	if p.ClientID != nil {
		clientID := *p.ClientID
		o.clientID = &clientID
	}

	o.touch()
	return nil
}

// RegisterFile appends a stored file to the order.
func (o *Order) RegisterFile(file UploadedFile) error {
	if err := o.files.Register(file); err != nil {
		return err
	}
	o.touch()
	return nil
}

// ApplyPayment marks the order paid through method with the processor's transaction
// reference. The order status is left alone.
func (o *Order) ApplyPayment(method, transactionRef string) error {
	if err := errors.Join(
		requireText("payment method", method),
		requireText("transaction reference", transactionRef),
	); err != nil {
		return err
	}

	o.paymentStatus = PaymentPaid
	o.paymentMethod = method
	o.transactionRef = transactionRef
	o.touch()
	o.record(EventPaymentApplied, o.status)
	return nil
}

// SetVersion is called by storage after each successful write with the new row version.
func (o *Order) SetVersion(version int64) {
	o.version = version
}

// ClearEvents is called once the recorded events are stored in the outbox. Files
// registered so far stop being pending.
func (o *Order) ClearEvents() {
	o.events = nil
	o.files.clearPending()
}

func (o *Order) changeStatus(target Status) {
	previous := o.status
	o.status = target
	o.touch()
	o.record(EventStatusChanged, previous)
}

func (o *Order) touch() {
	o.updatedAt = time.Now().UTC()
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setRequester(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("requester id", err)
	}
	o.requesterID = id
	return nil
}

func (o *Order) setDentist(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("dentist id", err)
	}
	o.dentistID = id
	return nil
}

func (o *Order) setClient(id *kernel.UUID) error {
	if id == nil {
		return nil
	}
	if err := id.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("client id", err)
	}
	clientID := *id
	o.clientID = &clientID
	return nil
}

func (o *Order) setPatient(p Patient) error {
	if err := errors.Join(
		requireText("patient name", p.name),
		requireText("patient sex", p.sex),
		requireText("patient age", p.age),
	); err != nil {
		return err
	}
	o.patient = p
	return nil
}
