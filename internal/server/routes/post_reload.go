package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// ReloadViewHandler redraws a view from its current filters.
func ReloadViewHandler(c echo.Context) error {
	type reloadBody struct {
		Stabilize bool `json:"stabilize"`
	}

	type reloadResponse struct {
		Message string       `json:"message"`
		Request uint64       `json:"request"`
		Graph   *graph.Model `json:"graph,omitempty"`
		Error   string       `json:"error,omitempty"`
	}

	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}

	data := new(reloadBody)
	if err := c.Bind(data); err != nil {
		return invalidBody(c, err)
	}

	if err := v.Reload(c.Request().Context(), data.Stabilize); err != nil {
		_, seq := v.Controller.Snapshot()
		return c.JSON(statusFor(err), reloadResponse{
			Message: "Graph could not be loaded, keeping previous graph",
			Request: seq,
			Error:   err.Error(),
		})
	}

	model, seq := v.Controller.Snapshot()
	return c.JSON(http.StatusOK, reloadResponse{
		Message: "Graph loaded",
		Request: seq,
		Graph:   model,
	})
}
