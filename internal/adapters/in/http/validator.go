package http

import (
	"reflect"
	"strings"

	"dentallab/internal/pkg/errs"

	validatorv10 "github.com/go-playground/validator/v10"
)

// RequestValidator runs struct tag validation on bound request bodies. Failures are
// reported as validation errors so they map to 400.
type RequestValidator struct {
	v *validatorv10.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request", err)
	}
	return nil
}
