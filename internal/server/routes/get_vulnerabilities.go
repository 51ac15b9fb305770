package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/report"

	"github.com/labstack/echo/v4"
)

// GetVulnerabilitiesHandler lists the vulnerabilities found by the
// scanners.
func GetVulnerabilitiesHandler(c echo.Context) error {
	type vulnerabilitiesResponse struct {
		Headers []string     `json:"headers"`
		Rows    []report.Row `json:"rows"`
	}

	app := c.(*middleware.AppContext).App
	rows, err := report.Load(c.Request().Context(), app.Transport)
	if err != nil {
		logger.Error("[Routes] Failed to load vulnerabilities", "err", err)
		return c.JSON(statusFor(err), errorResponse{Message: "Could not load vulnerabilities", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, vulnerabilitiesResponse{Headers: report.Headers, Rows: rows})
}
