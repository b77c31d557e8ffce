package credentials

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Locker is the slice of the session lifecycle controller the logout flow
// needs: logging out always locks the vault.
type Locker interface {
	Lock()
}

// Handler handles HTTP requests for the credential store. Handlers are
// thin: they bind the request, call the service, and render the response.
// No business logic lives here.
type Handler struct {
	service Service
	locker  Locker
}

// NewHandler creates a new credentials handler.
func NewHandler(service Service, locker Locker) *Handler {
	return &Handler{service: service, locker: locker}
}

// Me reports the current-user marker (GET /api/v1/auth/me). The marker is
// present even while the vault is locked -- the lock screen uses it to
// decide whether to offer biometric re-entry.
func (h *Handler) Me(c echo.Context) error {
	username, ok, err := h.service.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"currentUser": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"currentUser": username})
}

// Logout clears the current-user marker and locks the vault
// (POST /api/v1/auth/logout). Unlike an auto-lock, logout removes the
// marker, so the next entry requires a password.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context()); err != nil {
		return err
	}
	if h.locker != nil {
		h.locker.Lock()
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
}
