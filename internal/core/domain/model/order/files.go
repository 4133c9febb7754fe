package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrUploadedFileIsNotConstructed = errors.New("UploadedFile must be created via NewUploadedFile")

// UploadedFile is the metadata of one stored attachment. The bytes live in the blob
// store; the order only keeps where they are and who put them there.
type UploadedFile struct {
	id           kernel.UUID
	storedName   string
	originalName string
	mimeType     string
	size         int64
	url          string
	uploaderRole kernel.Role
	uploaderID   kernel.UUID
	createdAt    time.Time

	guard guard.ConstructorGuard
}

// FileParams describes a file that has already been written to the blob store.
type FileParams struct {
	StoredName   string
	OriginalName string
	MimeType     string
	Size         int64
	URL          string
	UploaderRole kernel.Role
	UploaderID   kernel.UUID
}

// NewUploadedFile validates the metadata of a freshly stored file. Only users and
// dentists upload files.
func NewUploadedFile(params FileParams, now time.Time) (UploadedFile, error) {
	return RestoreUploadedFile(kernel.NewUUID(), params, now)
}

// RestoreUploadedFile rebuilds persisted metadata.
func RestoreUploadedFile(id kernel.UUID, params FileParams, createdAt time.Time) (UploadedFile, error) {
	var roleErr error
	if params.UploaderRole != kernel.RoleUser && params.UploaderRole != kernel.RoleDentist {
		roleErr = errs.NewValueIsInvalidErrorWithCause(
			"uploader role is invalid",
			fmt.Errorf("%q cannot upload files", params.UploaderRole.String()),
		)
	}
	var sizeErr error
	if params.Size < 0 {
		sizeErr = errs.NewValueIsInvalidErrorWithCause("size is invalid", fmt.Errorf("%d is negative", params.Size))
	}

	if err := errors.Join(
		id.Validate(),
		requireText("stored name", params.StoredName),
		requireText("url", params.URL),
		params.UploaderID.Validate(),
		roleErr,
		sizeErr,
	); err != nil {
		return UploadedFile{}, err
	}

	return UploadedFile{
		id:           id,
		storedName:   params.StoredName,
		originalName: params.OriginalName,
		mimeType:     params.MimeType,
		size:         params.Size,
		url:          params.URL,
		uploaderRole: params.UploaderRole,
		uploaderID:   params.UploaderID,
		createdAt:    createdAt.UTC(),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (f UploadedFile) Validate() error {
	return f.guard.Validate(ErrUploadedFileIsNotConstructed)
}

func (f UploadedFile) ID() kernel.UUID           { return f.id }
func (f UploadedFile) StoredName() string        { return f.storedName }
func (f UploadedFile) OriginalName() string      { return f.originalName }
func (f UploadedFile) MimeType() string          { return f.mimeType }
func (f UploadedFile) Size() int64               { return f.size }
func (f UploadedFile) URL() string               { return f.url }
func (f UploadedFile) UploaderRole() kernel.Role { return f.uploaderRole }
func (f UploadedFile) UploaderID() kernel.UUID   { return f.uploaderID }
func (f UploadedFile) CreatedAt() time.Time      { return f.createdAt }

// FileRegistry is the append-only list of an order's files.
type FileRegistry struct {
	files []UploadedFile
	// pending holds files registered since the registry was loaded.
	pending []UploadedFile
}

// Register appends file. Files with the same name are kept side by side.
func (r *FileRegistry) Register(file UploadedFile) error {
	if err := file.Validate(); err != nil {
		return err
	}
	r.files = append(r.files, file)
	r.pending = append(r.pending, file)
	return nil
}

// All returns every file in registration order.
func (r FileRegistry) All() []UploadedFile {
	return append([]UploadedFile(nil), r.files...)
}

// Pending returns files registered since the order was loaded or last saved.
func (r FileRegistry) Pending() []UploadedFile {
	return append([]UploadedFile(nil), r.pending...)
}

func (r *FileRegistry) clearPending() {
	r.pending = nil
}

// VisibleTo filters files for a viewer:
//   - admin sees everything;
//   - dentist sees only the files they uploaded;
//   - user sees their own uploads, and the dentist's files once the order is terminee.
func (r FileRegistry) VisibleTo(role kernel.Role, userID kernel.UUID, status Status) []UploadedFile {
	out := make([]UploadedFile, 0, len(r.files))
	for _, f := range r.files {
		if fileVisible(f, role, userID, status) {
			out = append(out, f)
		}
	}
	return out
}

func fileVisible(f UploadedFile, role kernel.Role, userID kernel.UUID, status Status) bool {
	switch role {
	case kernel.RoleAdmin:
		return true
	case kernel.RoleDentist:
		return f.uploaderRole == kernel.RoleDentist && f.uploaderID.IsEqual(userID)
	case kernel.RoleUser:
		if f.uploaderRole == kernel.RoleUser && f.uploaderID.IsEqual(userID) {
			return true
		}
		return f.uploaderRole == kernel.RoleDentist && status == StatusCompleted
	default:
		return false
	}
}

func requireText(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
