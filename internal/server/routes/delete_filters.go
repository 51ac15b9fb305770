package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// RemoveViewFilterHandler deactivates a filter term and reloads the view.
func RemoveViewFilterHandler(c echo.Context) error {
	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}

	category, term, err := bindFilter(c)
	if err != nil {
		return invalidBody(c, err)
	}

	removed, err := v.Filters.RemoveTerm(c.Request().Context(), category, term)
	res := filterResponse{
		Message: "Filter removed",
		Changed: removed,
		Filters: activeFilters(v.Filters),
		Query:   v.Filters.Query().Text,
	}
	if !removed {
		res.Message = "Filter not active"
	}
	if err != nil {
		res.Message = "Filter removed, graph could not be loaded"
		res.Error = err.Error()
		return c.JSON(statusFor(err), res)
	}
	return c.JSON(http.StatusOK, res)
}
