package server

import (
	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(app.Metrics.Handler()))

	apiRoutes := e.Group("/api")

	// View routes
	apiRoutes.GET("/views", routes.GetViewsHandler)
	apiRoutes.POST("/views", routes.CreateViewHandler)
	apiRoutes.DELETE("/views/:id", routes.DeleteViewHandler)
	apiRoutes.GET("/views/:id/graph", routes.GetViewGraphHandler)
	apiRoutes.POST("/views/:id/reload", routes.ReloadViewHandler)
	apiRoutes.GET("/views/:id/ws", routes.ViewSocketHandler)

	// View filter routes
	apiRoutes.GET("/views/:id/filters", routes.GetViewFiltersHandler)
	apiRoutes.POST("/views/:id/filters", routes.AddViewFilterHandler)
	apiRoutes.DELETE("/views/:id/filters", routes.RemoveViewFilterHandler)

	// Filter menu routes
	apiRoutes.GET("/filters/catalog", routes.GetCatalogHandler)
	apiRoutes.GET("/filters/vocabulary", routes.GetVocabularyHandler)

	// Report routes
	apiRoutes.GET("/vulnerabilities", routes.GetVulnerabilitiesHandler)
}
