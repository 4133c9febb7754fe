package cmd

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"dentallab/internal/adapters/out/postgres/sqlitetest"
	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/application/usecases/queries"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key       string
	eventType string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, eventType string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{key: key, eventType: eventType})
	return nil
}

type noGateway struct{}

func (noGateway) Name() string { return "none" }

func (noGateway) CreateCheckout(context.Context, payment.CheckoutRequest) (payment.CheckoutSession, error) {
	return payment.CheckoutSession{}, nil
}

func (noGateway) ParseConfirmation([]byte, string) (payment.Confirmation, error) {
	return payment.Confirmation{}, payment.ErrIgnoredEvent
}

func principal(t *testing.T, role kernel.Role) kernel.Principal {
	t.Helper()
	p, err := kernel.NewPrincipal(kernel.NewUUID(), role)
	require.NoError(t, err)
	return p
}

func TestCompositionRoot_OrderEventsReachPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := NewCompositionRoot(Config{PaymentCurrency: "EUR"}, sqlitetest.Open(t), Adapters{
		Gateway:   noGateway{},
		Publisher: publisher,
	}, nil, logger)

	requester := principal(t, kernel.RoleUser)
	dentist := principal(t, kernel.RoleDentist)
	orderID := kernel.NewUUID()

	create, err := commands.NewCreateOrderCommand(requester, orderID, commands.OrderDetails{
		DentistID:   dentist.UserID,
		PatientName: "Jane Doe",
		PatientSex:  "F",
		PatientAge:  "42",
	}, []order.ItemSpec{{Category: "Conjointe", Subtype: "Couronne", Upper: []int{11}}}, nil)
	require.NoError(t, err)
	createHandler := app.CreateCreateOrderCommandHandler()
	_, err = createHandler.Handle(ctx, create)
	require.NoError(t, err)

	get, err := queries.NewGetOrderQuery(requester, orderID)
	require.NoError(t, err)
	details, err := app.CreateGetOrderQueryHandler().Handle(ctx, get)
	require.NoError(t, err)
	assert.Equal(t, "6.00", details.Total.String())

	relay, err := commands.NewRelayOutboxCommand(0, 0)
	require.NoError(t, err)
	relayHandler := app.CreateRelayOutboxCommandHandler()

	result, err := relayHandler.Handle(ctx, relay)
	require.NoError(t, err)
	assert.Equal(t, commands.RelayOutboxResult{Fetched: 1, Published: 1}, result)
	assert.Equal(t, []published{{key: orderID.String(), eventType: string(order.EventCreated)}}, publisher.messages)

	result, err = relayHandler.Handle(ctx, relay)
	require.NoError(t, err)
	assert.Zero(t, result.Fetched)
}
