package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// OrderDetails is the descriptive part of a new order.
type OrderDetails struct {
	DentistID   kernel.UUID
	ClientID    *kernel.UUID
	PatientName string
	PatientSex  string
	PatientAge  string
	Remark      string
	Model       string
}

// CreateOrderCommand represents a requester submitting a new fabrication order with its
// work items and initial files.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(principal, kernel.NewUUID(), OrderDetails{
//	    DentistID:   dentistID,
//	    PatientName: "Jane Doe",
//	    PatientSex:  "F",
//	    PatientAge:  "42",
//	}, []order.ItemSpec{{Category: "Conjointe", Subtype: "Couronne", Upper: []int{11}}}, nil)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderID   kernel.UUID
	dentistID kernel.UUID
	clientID  *kernel.UUID
	patient   order.Patient
	remark    string
	model     string
	items     []order.ItemSpec
	files     []FileUpload

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the request shape: principal, ids, patient fields,
// a non-empty item list and well-formed uploads. Prices are resolved by the handler.
func NewCreateOrderCommand(
	principal kernel.Principal,
	orderID kernel.UUID,
	details OrderDetails,
	items []order.ItemSpec,
	files []FileUpload,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		remark: details.Remark,
		model:  details.Model,
		files:  append([]FileUpload(nil), files...),
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setPrincipal(principal),
		cmd.setOrderID(orderID),
		cmd.setDentistID(details.DentistID),
		cmd.setClientID(details.ClientID),
		cmd.setPatient(details.PatientName, details.PatientSex, details.PatientAge),
		cmd.setItems(items),
		validateUploads(files),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Principal() kernel.Principal { return c.principal }
func (c CreateOrderCommand) OrderID() kernel.UUID        { return c.orderID }
func (c CreateOrderCommand) DentistID() kernel.UUID      { return c.dentistID }
func (c CreateOrderCommand) ClientID() *kernel.UUID      { return c.clientID }
func (c CreateOrderCommand) Patient() order.Patient      { return c.patient }
func (c CreateOrderCommand) Remark() string              { return c.remark }
func (c CreateOrderCommand) Model() string               { return c.model }

func (c CreateOrderCommand) Items() []order.ItemSpec {
	return append([]order.ItemSpec(nil), c.items...)
}

func (c CreateOrderCommand) Files() []FileUpload {
	return append([]FileUpload(nil), c.files...)
}

func (c *CreateOrderCommand) setPrincipal(principal kernel.Principal) error {
	if err := validatePrincipal(principal); err != nil {
		return err
	}

	c.principal = principal
	return nil
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setDentistID(dentistID kernel.UUID) error {
	if err := dentistID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("dentist id", err)
	}

	c.dentistID = dentistID
	return nil
}

func (c *CreateOrderCommand) setClientID(clientID *kernel.UUID) error {
	if clientID == nil {
		return nil
	}
	if err := clientID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("client id", err)
	}

	id := *clientID
	c.clientID = &id
	return nil
}

func (c *CreateOrderCommand) setPatient(name, sex, age string) error {
	patient, err := order.NewPatient(name, sex, age)
	if err != nil {
		return err
	}

	c.patient = patient
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.ItemSpec) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	c.items = append([]order.ItemSpec(nil), items...)
	return nil
}
