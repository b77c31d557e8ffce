package lockscreen

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/middleware"
)

// RegisterRoutes sets up the lock screen routes on the given API group.
// All of them are public: they ARE the way in.
//
// Unlock attempts are rate-limited to slow brute-force guessing; the
// attempt counter handles the honest-mistake case.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.POST("/unlock", h.Unlock, middleware.RateLimit(10, time.Minute))
	g.POST("/unlock/finish", h.FinishUnlock, middleware.RateLimit(10, time.Minute))
	g.GET("/unlock/status", h.Status)
}
