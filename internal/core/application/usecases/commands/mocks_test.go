package commands_test

import (
	"context"
	"io"
	"testing"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// Get also accepts a func() *order.Order return value for orders that only exist once
// an earlier call has run.
func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if load, ok := args.Get(0).(func() *order.Order); ok {
		return load(), args.Error(1)
	}
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id kernel.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLedgerRepository struct{ mock.Mock }

func (m *MockLedgerRepository) Exists(
	ctx context.Context, orderID kernel.UUID, transactionID string, status payment.EntryStatus,
) (bool, error) {
	args := m.Called(ctx, orderID, transactionID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) Add(ctx context.Context, entry payment.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]payment.LedgerEntry, error) {
	args := m.Called(ctx, orderID)
	entries, _ := args.Get(0).([]payment.LedgerEntry)
	return entries, args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockPaymentUoW struct {
	MockOrderUoW
}

func (m *MockPaymentUoW) LedgerRepository() ports.LedgerRepository {
	args := m.Called()
	return args.Get(0).(ports.LedgerRepository)
}

type MockPaymentUoWFactory struct{ mock.Mock }

func (m *MockPaymentUoWFactory) Create() commands.PaymentUoW {
	args := m.Called()
	return args.Get(0).(commands.PaymentUoW)
}

type MockBlobStore struct{ mock.Mock }

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, size, body)
	return args.String(0), args.Error(1)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) Name() string {
	return "stripe"
}

func (m *MockPaymentGateway) CreateCheckout(
	ctx context.Context, request payment.CheckoutRequest,
) (payment.CheckoutSession, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(payment.CheckoutSession), args.Error(1)
}

func (m *MockPaymentGateway) ParseConfirmation(payload []byte, signatureHeader string) (payment.Confirmation, error) {
	args := m.Called(payload, signatureHeader)
	return args.Get(0).(payment.Confirmation), args.Error(1)
}

func newPrincipal(t *testing.T, role kernel.Role) kernel.Principal {
	t.Helper()
	p, err := kernel.NewPrincipal(kernel.NewUUID(), role)
	require.NoError(t, err)
	return p
}

// newStoredOrder builds an order as the repository would return it: saved once with no
// pending events.
func newStoredOrder(t *testing.T, requester, dentist kernel.UUID, specs ...order.ItemSpec) *order.Order {
	t.Helper()
	if len(specs) == 0 {
		specs = []order.ItemSpec{{Category: "Conjointe", Subtype: "Couronne", Upper: []int{11}}}
	}
	patient, err := order.NewPatient("Jane Doe", "F", "42")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), order.CreateParams{
		RequesterID: requester,
		DentistID:   dentist,
		Patient:     patient,
	}, pricing.DefaultTable(), specs)
	require.NoError(t, err)
	o.SetVersion(1)
	o.ClearEvents()
	return o
}
