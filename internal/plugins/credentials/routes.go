package credentials

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the credential store routes on the given API group.
// Both are public: the marker must be readable while locked, and logout must
// work from a locked screen. Register/login go through the unlock endpoint
// owned by the lockscreen plugin so every attempt passes its counter.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/auth/me", h.Me)
	g.POST("/auth/logout", h.Logout)
}
