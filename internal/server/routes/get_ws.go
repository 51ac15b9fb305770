package routes

import (
	"net/http"

	"github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// ViewSocketHandler connects a browser canvas to a view. The current graph
// is sent first, then every canvas update; interaction events from the
// browser drive the view's controller.
func ViewSocketHandler(c echo.Context) error {
	v, err := middleware.ViewFromParam(c)
	if err != nil {
		return viewNotFound(c)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("[Routes] WebSocket upgrade failed", "view", v.ID, "err", err)
		return nil
	}

	v.Hub.Serve(conn, v.Greet, v.Controller.HandleEvent)
	return nil
}
