package notes

import (
	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/plugins/session"
)

// RegisterRoutes sets up all note routes on the given API group. Every
// route requires an unlocked session, and traffic through the group counts
// as activity toward the inactivity timer.
func RegisterRoutes(g *echo.Group, h *Handler, controller *session.Controller) {
	ng := g.Group("/notes",
		session.RequireUnlocked(controller),
		session.TrackActivity(controller),
	)

	ng.GET("", h.List)
	ng.POST("", h.Create)
	ng.GET("/:id", h.Get)
	ng.PATCH("/:id", h.Update)
	ng.DELETE("/:id", h.Delete)
}
