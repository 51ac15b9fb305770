package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/filter"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetViewFiltersHandler returns the active filter chips of a view.
func GetViewFiltersHandler(c echo.Context) error {
	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}
	return c.JSON(http.StatusOK, filterResponse{
		Message: "OK",
		Filters: activeFilters(v.Filters),
		Query:   v.Filters.Query().Text,
	})
}

// GetCatalogHandler returns the static filter menu.
func GetCatalogHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, filter.Menu())
}

// GetVocabularyHandler returns the terms found in the loaded dataset.
func GetVocabularyHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	vocab, err := app.Vocabulary.Get(c.Request().Context())
	if err != nil {
		logger.Error("[Routes] Failed to load vocabulary", "err", err)
		return c.JSON(statusFor(err), errorResponse{Message: "Could not load vocabulary", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, vocab)
}
