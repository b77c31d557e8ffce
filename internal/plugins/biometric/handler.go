package biometric

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/apperror"
)

// Handler handles HTTP requests for the platform authenticator bridge.
// Handlers are thin: they bind the request, call the bridge, and render the
// response. No business logic lives here.
type Handler struct {
	bridge *Bridge
}

// NewHandler creates a new biometric handler with the given bridge.
func NewHandler(bridge *Bridge) *Handler {
	return &Handler{bridge: bridge}
}

// Availability reports whether a real platform ceremony can run
// (GET /api/v1/biometric/availability).
func (h *Handler) Availability(c echo.Context) error {
	availability := h.bridge.CheckAvailability(c.Request().Context())

	resp := map[string]any{
		"available": availability.Available,
	}
	if availability.Kind != "" {
		resp["kind"] = availability.Kind
	}
	if availability.Err != nil {
		resp["degraded"] = true
	}
	return c.JSON(http.StatusOK, resp)
}

// ReportAvailability records the client's capability probe
// (POST /api/v1/biometric/availability).
func (h *Handler) ReportAvailability(c echo.Context) error {
	var report AvailabilityReport
	if err := c.Bind(&report); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.bridge.ReportAvailability(c.Request().Context(), report); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}
