package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// DeleteViewHandler closes a view and disconnects its browsers.
func DeleteViewHandler(c echo.Context) error {
	if err := c.(*middleware.AppContext).App.Views.Delete(c.Param("id")); err != nil {
		return viewNotFound(c)
	}
	return c.NoContent(http.StatusNoContent)
}
