package routes

import (
	"net/http"
	"time"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/filter"
	"github.com/cicdguard/backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// GetViewsHandler lists the open views.
func GetViewsHandler(c echo.Context) error {
	type viewSummary struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"createdAt"`
		Filters   int       `json:"filters"`
		Clients   int       `json:"clients"`
	}

	views := c.(*middleware.AppContext).App.Views.List()
	out := make([]viewSummary, 0, len(views))
	for _, v := range views {
		out = append(out, viewSummary{
			ID:        v.ID,
			CreatedAt: v.CreatedAt,
			Filters:   v.Filters.State().Len(),
			Clients:   v.Hub.Clients(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetViewGraphHandler returns the graph currently drawn in a view together
// with its active filters.
func GetViewGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		ID      string        `json:"id"`
		Request uint64        `json:"request"`
		Graph   *graph.Model  `json:"graph"`
		Filters []filter.Term `json:"filters"`
		Query   string        `json:"query"`
	}

	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}

	model, seq := v.Controller.Snapshot()
	filters := v.Filters.State().All()
	if filters == nil {
		filters = []filter.Term{}
	}
	return c.JSON(http.StatusOK, getGraphResponse{
		ID:      v.ID,
		Request: seq,
		Graph:   model,
		Filters: filters,
		Query:   v.Filters.Query().Text,
	})
}
