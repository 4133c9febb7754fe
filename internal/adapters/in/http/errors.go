package http

import (
	"errors"
	"log/slog"
	"net/http"

	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNoPrincipal):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrRoleNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrIllegalTransition), errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest
	case errs.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an ErrorResponse. Internal errors are logged and their text is not
// sent to the client.
func (s *Server) fail(c echo.Context, err error) error {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		message = http.StatusText(code)
	}
	return c.JSON(code, ErrorResponse{Code: code, Message: message})
}
