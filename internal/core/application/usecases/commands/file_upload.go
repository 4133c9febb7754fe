package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"
)

// FileUpload is a file received from the caller whose bytes are not stored yet.
type FileUpload struct {
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

func (u FileUpload) validate() error {
	var problems []error
	if strings.TrimSpace(u.OriginalName) == "" {
		problems = append(problems, errs.NewValueIsRequiredError("file name"))
	}
	if u.Content == nil {
		problems = append(problems, errs.NewValueIsRequiredError("file content"))
	}
	if u.Size < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("file size", fmt.Errorf("%d is negative", u.Size)))
	}
	return errors.Join(problems...)
}

func validateUploads(uploads []FileUpload) error {
	problems := make([]error, 0, len(uploads))
	for i, u := range uploads {
		if err := u.validate(); err != nil {
			problems = append(problems, fmt.Errorf("file %d: %w", i, err))
		}
	}
	return errors.Join(problems...)
}

func requireUploader(principal kernel.Principal) error {
	if principal.Role != kernel.RoleUser && principal.Role != kernel.RoleDentist {
		return errs.NewRoleNotAllowedError(principal.Role.String(), "upload files")
	}
	return nil
}

// fileAttacher writes upload bytes to the blob store and registers the resulting
// metadata on the order, one order transaction per file.
type fileAttacher struct {
	uowFactory OrderUoWFactory
	blobs      ports.BlobStore
	locker     OrderLocker
}

// attachEach keeps going after a failed file and returns the joined failures.
func (a fileAttacher) attachEach(
	ctx context.Context, principal kernel.Principal, orderID kernel.UUID, uploads []FileUpload,
) error {
	var problems []error
	for i, upload := range uploads {
		if err := a.attach(ctx, principal, orderID, upload); err != nil {
			problems = append(problems, fmt.Errorf("file %d (%s): %w", i, upload.OriginalName, err))
		}
	}
	return errors.Join(problems...)
}

func (a fileAttacher) attach(
	ctx context.Context, principal kernel.Principal, orderID kernel.UUID, upload FileUpload,
) error {
	file, err := a.store(ctx, principal, orderID, upload)
	if err != nil {
		return err
	}

	unlock := a.locker.Lock(orderID.String())
	defer unlock()

	uow := a.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := loadAccessible(ctx, orderRepo, principal, orderID)
	if err != nil {
		return err
	}

	if err = o.RegisterFile(file); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// store writes the bytes under orders/<order id>/<random name><ext> and returns the
// metadata to register.
func (a fileAttacher) store(
	ctx context.Context, principal kernel.Principal, orderID kernel.UUID, upload FileUpload,
) (order.UploadedFile, error) {
	if err := errors.Join(requireUploader(principal), upload.validate()); err != nil {
		return order.UploadedFile{}, err
	}

	storedName := kernel.NewUUID().String() + strings.ToLower(filepath.Ext(upload.OriginalName))
	key := path.Join("orders", orderID.String(), storedName)

	url, err := a.blobs.Put(ctx, key, upload.MimeType, upload.Size, upload.Content)
	if err != nil {
		return order.UploadedFile{}, fmt.Errorf("store file: %w", err)
	}

	return order.NewUploadedFile(order.FileParams{
		StoredName:   storedName,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		Size:         upload.Size,
		URL:          url,
		UploaderRole: principal.Role,
		UploaderID:   principal.UserID,
	}, time.Now().UTC())
}
