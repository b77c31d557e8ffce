package session

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the session routes on the given API group. All of
// them are public: the lock screen polls state and reports visibility while
// the session is locked.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/session", h.State)
	g.POST("/session/activity", h.Activity)
	g.POST("/session/visibility", h.Visibility)
}
