package middleware

import (
	"github.com/cicdguard/backend/internal/metrics"
	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/internal/view"
	"github.com/cicdguard/backend/pkg/transport"
	"github.com/cicdguard/backend/pkg/vocabulary"

	"github.com/labstack/echo/v4"
)

type App struct {
	Views      *view.Registry
	Vocabulary *vocabulary.Service
	Transport  transport.Transport
	Metrics    *metrics.Metrics
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

// ViewFromParam resolves the :id path parameter to an open view. Ids the
// registry could not have issued are rejected without a lookup.
func ViewFromParam(c echo.Context) (*view.View, error) {
	id := c.Param("id")
	if !util.IsID(id) {
		return nil, view.ErrNotFound
	}
	return c.(*AppContext).App.Views.Get(id)
}
