package queries_test

import (
	"context"
	"testing"
	"time"

	"dentallab/internal/adapters/out/postgres"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/pricing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPrincipal(t *testing.T, role kernel.Role) kernel.Principal {
	t.Helper()
	p, err := kernel.NewPrincipal(kernel.NewUUID(), role)
	require.NoError(t, err)
	return p
}

// seedOrder stores a pending order and pins its creation time so listings sort
// deterministically.
func seedOrder(
	t *testing.T,
	db *gorm.DB,
	requester, dentist kernel.UUID,
	createdAt time.Time,
	specs ...order.ItemSpec,
) *order.Order {
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

	ctx := context.Background()
	uow := postgres.NewGormUnitOfWorkFactory(db).Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Add(ctx, o))
	require.NoError(t, uow.Commit(ctx))

	require.NoError(t, db.Exec("UPDATE orders SET created_at = ? WHERE id = ?", createdAt.UTC(), o.ID().Bytes()).Error)
	return o
}

// readers returns repositories bound to the plain connection, as the application wires them.
func readers(db *gorm.DB) postgres.Readers {
	return postgres.NewReaders(db)
}
