package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/graph"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CreateViewHandler opens a new view and draws the unfiltered graph. The
// view is created even when the first load fails.
func CreateViewHandler(c echo.Context) error {
	type createViewResponse struct {
		Message string       `json:"message"`
		ID      string       `json:"id,omitempty"`
		Graph   *graph.Model `json:"graph,omitempty"`
		Error   string       `json:"error,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	v, err := app.Views.Create()
	if err != nil {
		logger.Error("[Routes] Failed to create view", "err", err)
		return c.JSON(http.StatusInternalServerError, createViewResponse{
			Message: "Internal server error",
		})
	}

	res := createViewResponse{Message: "View created", ID: v.ID}
	if err := v.Reload(c.Request().Context(), true); err != nil {
		res.Message = "View created, graph could not be loaded"
		res.Error = err.Error()
	}
	res.Graph, _ = v.Controller.Snapshot()

	return c.JSON(http.StatusCreated, res)
}
