package order

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
)

// Patch is a partial update. Nil fields are left unchanged; a non-nil field replaces the
// stored value. Patient fields may not be blanked.
type Patch struct {
	PatientName *string
	PatientSex  *string
	PatientAge  *string
	Remark      *string
	Model       *string
	DentistID   *kernel.UUID
	ClientID    *kernel.UUID
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.PatientName == nil && p.PatientSex == nil && p.PatientAge == nil &&
		p.Remark == nil && p.Model == nil && p.DentistID == nil && p.ClientID == nil
}

func (p Patch) validate() error {
	var problems []error
	if p.PatientName != nil {
		problems = append(problems, requireText("patient name", *p.PatientName))
	}
	if p.PatientSex != nil {
		problems = append(problems, requireText("patient sex", *p.PatientSex))
	}
	if p.PatientAge != nil {
		problems = append(problems, requireText("patient age", *p.PatientAge))
	}
	if p.DentistID != nil {
		problems = append(problems, p.DentistID.Validate())
	}
	if p.ClientID != nil {
		problems = append(problems, p.ClientID.Validate())
	}
	return errors.Join(problems...)
}
