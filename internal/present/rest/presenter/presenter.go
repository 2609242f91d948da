package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/aquamind/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// Error renders a failure by its kind. Unrecognised errors are logged and
// answered with an opaque 500.
func Error(c echo.Context, err error) error {
	status, msg := classify(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		slog.ErrorContext(
			c.Request().Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("module", "rest"),
		)
	}
	return c.JSON(status, errorResponse{Error: msg})
}

func classify(err error) (int, string) {
	var invalid domain.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, domain.ErrDuplicateEmail.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, domain.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests, please try again later"
	case errors.Is(err, domain.ErrNotFound):
		var nf domain.NotFoundError
		if errors.As(err, &nf) {
			return http.StatusNotFound, nf.Error()
		}
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout, domain.ErrTimeout.Error()
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, domain.ErrStorageUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal failure"
	}
}
