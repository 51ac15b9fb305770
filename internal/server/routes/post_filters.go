package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// AddViewFilterHandler activates a filter term and reloads the view. The
// term stays active when the reload fails.
func AddViewFilterHandler(c echo.Context) error {
	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}

	category, term, err := bindFilter(c)
	if err != nil {
		return invalidBody(c, err)
	}

	added, err := v.Filters.AddTerm(c.Request().Context(), category, term)
	res := filterResponse{
		Message: "Filter added",
		Changed: added,
		Filters: activeFilters(v.Filters),
		Query:   v.Filters.Query().Text,
	}
	if !added {
		res.Message = "Filter already active"
	}
	if err != nil {
		res.Message = "Filter added, graph could not be loaded"
		res.Error = err.Error()
		return c.JSON(statusFor(err), res)
	}
	return c.JSON(http.StatusOK, res)
}
