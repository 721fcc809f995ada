package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/helixbio/drshub/cmd/drshub/handlers"
)

// RegisterObjectRoutes registers DRS object routes under the API group
func RegisterObjectRoutes(g *echo.Group, handler *handlers.ObjectHandler) {
	// GET {api_route}/objects/:object_id - DRS object lookup
	g.GET("/objects/:object_id", handler.GetObject)
}
