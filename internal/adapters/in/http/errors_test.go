package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.NewValueIsRequiredError("items"), http.StatusBadRequest},
		{errs.NewValueIsOutOfRangeError("limit", 500, 1, 200), http.StatusBadRequest},
		{errors.Join(errs.NewValueIsInvalidError("a"), errs.NewValueIsRequiredError("b")), http.StatusBadRequest},
		{errs.NewObjectNotFoundError("order", "x"), http.StatusNotFound},
		{errs.NewIllegalTransitionError("user", "en_attente", "terminee"), http.StatusConflict},
		{errs.NewVersionIsInvalidError("order"), http.StatusConflict},
		{errs.NewRoleNotAllowedError("dentist", "create orders"), http.StatusForbidden},
		{payment.ErrInvalidSignature, http.StatusBadRequest},
		{fmt.Errorf("load: %w", errNoPrincipal), http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
