package biometric

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up the bridge routes on the given API group. The
// availability probe is public: the lock screen needs it before anyone has
// authenticated. Ceremony begin/finish are owned by the lock screen flow,
// which wraps the bridge with attempt accounting.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/biometric/availability", h.Availability)
	g.POST("/biometric/availability", h.ReportAvailability)
}
