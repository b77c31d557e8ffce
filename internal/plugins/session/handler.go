package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/apperror"
)

// Handler handles HTTP requests for the lock state machine. Handlers are
// thin: they translate requests into controller signals.
type Handler struct {
	controller *Controller
}

// NewHandler creates a new session handler with the given controller.
func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

// State reports the current lock state (GET /api/v1/session).
func (h *Handler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"state": string(h.controller.State()),
	})
}

// Activity records user activity (POST /api/v1/session/activity). The
// client sends this on interaction events; API traffic through the guarded
// groups counts automatically.
func (h *Handler) Activity(c echo.Context) error {
	h.controller.Activity()
	return c.JSON(http.StatusOK, map[string]string{
		"state": string(h.controller.State()),
	})
}

// visibilityRequest is the page visibility signal from the client.
type visibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// Visibility relays page visibility changes (POST /api/v1/session/visibility).
// Going hidden locks immediately; becoming visible again changes nothing,
// the user must re-authenticate.
func (h *Handler) Visibility(c echo.Context) error {
	var req visibilityRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if req.Hidden {
		h.controller.VisibilityHidden()
	}
	return c.JSON(http.StatusOK, map[string]string{
		"state": string(h.controller.State()),
	})
}
