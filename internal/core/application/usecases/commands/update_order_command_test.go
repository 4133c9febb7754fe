package commands_test

import (
	"testing"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateOrderCommand_ItemsNilVersusEmpty(t *testing.T) {
	principal := newPrincipal(t, kernel.RoleUser)
	remark := "rush"

	patchOnly, err := commands.NewUpdateOrderCommand(principal, kernel.NewUUID(), order.Patch{Remark: &remark}, nil, nil)
	require.NoError(t, err)
	assert.False(t, patchOnly.ReplacesItems())

	clearItems, err := commands.NewUpdateOrderCommand(principal, kernel.NewUUID(), order.Patch{}, []order.ItemSpec{}, nil)
	require.NoError(t, err)
	assert.True(t, clearItems.ReplacesItems())
	assert.Empty(t, clearItems.Items())
}

func TestNewUpdateOrderCommand_NothingToChange(t *testing.T) {
	_, err := commands.NewUpdateOrderCommand(newPrincipal(t, kernel.RoleUser), kernel.NewUUID(), order.Patch{}, nil, nil)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewUpdateOrderCommand_InvalidInput(t *testing.T) {
	_, err := commands.NewUpdateOrderCommand(kernel.Principal{}, kernel.UUID{}, order.Patch{}, []order.ItemSpec{}, nil)
	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestUpdateOrderCommand_NotConstructed(t *testing.T) {
	var cmd commands.UpdateOrderCommand
	assert.ErrorIs(t, cmd.Validate(), commands.ErrUpdateOrderCommandIsNotConstructed)
}
