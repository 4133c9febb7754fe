package commands

import (
	"context"

	"dentallab/internal/core/ports"
)

// AddOrderFileCommandHandler stores the bytes in the blob store, then registers the file
// on the order. Only users and dentists upload.
type AddOrderFileCommandHandler struct {
	files fileAttacher
}

func NewAddOrderFileCommandHandler(
	uowFactory OrderUoWFactory, blobs ports.BlobStore, locker OrderLocker,
) AddOrderFileCommandHandler {
	return AddOrderFileCommandHandler{
		files: fileAttacher{
			uowFactory: uowFactory,
			blobs:      blobs,
			locker:     locker,
		},
	}
}

func (h *AddOrderFileCommandHandler) Handle(ctx context.Context, cmd AddOrderFileCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := requireUploader(cmd.Principal()); err != nil {
		return err
	}

	return h.files.attach(ctx, cmd.Principal(), cmd.OrderID(), cmd.Upload())
}
