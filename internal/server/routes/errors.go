package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/cicdguard/backend/internal/view"
	"github.com/cicdguard/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var transportErr *common.TransportError
	var shapeErr *common.DataShapeError
	var queryErr *common.QueryFailedError
	switch {
	case errors.Is(err, view.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.As(err, &shapeErr), errors.As(err, &queryErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func viewNotFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, errorResponse{Message: "View not found"})
}

func invalidBody(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body", Error: err.Error()})
}
