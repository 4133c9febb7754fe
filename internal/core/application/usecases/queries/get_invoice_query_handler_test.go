package queries_test

import (
	"context"
	"testing"
	"time"

	"dentallab/internal/adapters/out/postgres/sqlitetest"
	"dentallab/internal/core/application/usecases/queries"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetInvoiceQuery(t *testing.T) {
	admin := newPrincipal(t, kernel.RoleAdmin)
	a, b := kernel.NewUUID(), kernel.NewUUID()

	t.Run("drops repeated ids", func(t *testing.T) {
		q, err := queries.NewGetInvoiceQuery(admin, []kernel.UUID{a, b, a})
		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{a, b}, q.OrderIDs())
	})

	t.Run("requires at least one id", func(t *testing.T) {
		_, err := queries.NewGetInvoiceQuery(admin, nil)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejects nil ids", func(t *testing.T) {
		_, err := queries.NewGetInvoiceQuery(admin, []kernel.UUID{a, {}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order id 1")
	})

	t.Run("caps the batch", func(t *testing.T) {
		many := make([]kernel.UUID, queries.MaxInvoiceOrders+1)
		for i := range many {
			many[i] = kernel.NewUUID()
		}
		_, err := queries.NewGetInvoiceQuery(admin, many)
		assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestGetInvoiceQueryHandler(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.Open(t)
	handler := queries.NewGetInvoiceQueryHandler(readers(db).Orders, "EUR")

	user := newPrincipal(t, kernel.RoleUser)
	dentist := kernel.NewUUID()
	first := seedOrder(t, db, user.UserID, dentist, time.Now(),
		order.ItemSpec{Category: "Conjointe", Subtype: "Inlay-core", Upper: []int{14}},
		order.ItemSpec{Category: "Conjointe", Subtype: "Couronne", Lower: []int{36}},
	)
	second := seedOrder(t, db, user.UserID, dentist, time.Now())

	t.Run("sums the orders in request order", func(t *testing.T) {
		query, err := queries.NewGetInvoiceQuery(user, []kernel.UUID{second.ID(), first.ID()})
		require.NoError(t, err)

		invoice, err := handler.Handle(ctx, query)

		require.NoError(t, err)
		assert.Equal(t, "EUR", invoice.Currency)
		assert.False(t, invoice.IssuedAt.IsZero())
		require.Len(t, invoice.Orders, 2)
		assert.Equal(t, second.ID(), invoice.Orders[0].OrderID)
		assert.Equal(t, "6.00", invoice.Orders[0].Total.String())
		assert.Len(t, invoice.Orders[1].Items, 2)
		assert.Equal(t, "10.80", invoice.Orders[1].Total.String())
		assert.Equal(t, "16.80", invoice.Total.String())
	})

	t.Run("one foreign order fails the whole invoice", func(t *testing.T) {
		foreign := seedOrder(t, db, kernel.NewUUID(), dentist, time.Now())
		query, err := queries.NewGetInvoiceQuery(user, []kernel.UUID{first.ID(), foreign.ID()})
		require.NoError(t, err)

		_, err = handler.Handle(ctx, query)

		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}
