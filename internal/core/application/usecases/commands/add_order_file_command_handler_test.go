package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/keylock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stlUpload(content string) commands.FileUpload {
	return commands.FileUpload{
		OriginalName: "crown.STL",
		MimeType:     "model/stl",
		Size:         int64(len(content)),
		Content:      strings.NewReader(content),
	}
}

func TestNewAddOrderFileCommand_InvalidUpload(t *testing.T) {
	_, err := commands.NewAddOrderFileCommand(newPrincipal(t, kernel.RoleUser), kernel.NewUUID(), commands.FileUpload{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.ErrorIs(t, commands.AddOrderFileCommand{}.Validate(), commands.ErrAddOrderFileCommandIsNotConstructed)
}

func TestAddOrderFileCommandHandler_Handle_Success(t *testing.T) {
	ctx := context.Background()
	dentist := newPrincipal(t, kernel.RoleDentist)
	stored := newStoredOrder(t, kernel.NewUUID(), dentist.UserID)
	cmd, err := commands.NewAddOrderFileCommand(dentist, stored.ID(), stlUpload("mesh"))
	require.NoError(t, err)

	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything,
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "orders/"+stored.ID().String()+"/") && strings.HasSuffix(key, ".stl")
		}),
		"model/stl", int64(4), mock.Anything).Return("/uploads/crown.stl", nil).Once()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once(),
		repo.On("Update", mock.Anything, stored).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewAddOrderFileCommandHandler(factory, blobs, keylock.New())
	require.NoError(t, h.Handle(ctx, cmd))

	require.Len(t, stored.PendingFiles(), 1)
	file := stored.PendingFiles()[0]
	assert.Equal(t, "crown.STL", file.OriginalName())
	assert.Equal(t, "/uploads/crown.stl", file.URL())
	assert.True(t, strings.HasSuffix(file.StoredName(), ".stl"))
	blobs.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestAddOrderFileCommandHandler_Handle_AdminCannotUpload(t *testing.T) {
	cmd, err := commands.NewAddOrderFileCommand(newPrincipal(t, kernel.RoleAdmin), kernel.NewUUID(), stlUpload("x"))
	require.NoError(t, err)

	blobs := new(MockBlobStore)
	factory := new(MockOrderUoWFactory)
	h := commands.NewAddOrderFileCommandHandler(factory, blobs, keylock.New())

	require.ErrorIs(t, h.Handle(context.Background(), cmd), errs.ErrRoleNotAllowed)
	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	factory.AssertNotCalled(t, "Create")
}

func TestAddOrderFileCommandHandler_Handle_StoreError(t *testing.T) {
	cmd, err := commands.NewAddOrderFileCommand(newPrincipal(t, kernel.RoleUser), kernel.NewUUID(), stlUpload("x"))
	require.NoError(t, err)

	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable")).Once()
	factory := new(MockOrderUoWFactory)
	h := commands.NewAddOrderFileCommandHandler(factory, blobs, keylock.New())

	require.ErrorContains(t, h.Handle(context.Background(), cmd), "bucket unavailable")
	factory.AssertNotCalled(t, "Create")
}

func TestAddOrderFileCommandHandler_Handle_OutOfScope(t *testing.T) {
	ctx := context.Background()
	stranger := newPrincipal(t, kernel.RoleUser)
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd, err := commands.NewAddOrderFileCommand(stranger, stored.ID(), stlUpload("x"))
	require.NoError(t, err)

	blobs := new(MockBlobStore)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("/uploads/x.stl", nil).Once()
	repo := new(MockOrderRepository)
	repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once()
	uow := new(MockOrderUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewAddOrderFileCommandHandler(factory, blobs, keylock.New())
	require.ErrorIs(t, h.Handle(ctx, cmd), errs.ErrObjectNotFound)
	assert.Empty(t, stored.Files())
}
