package lockscreen

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/plugins/biometric"
)

// Handler handles HTTP requests for the lock screen. Handlers are thin:
// they bind the request, call the service, and render the response.
type Handler struct {
	service *Service
}

// NewHandler creates a new lock screen handler with the given service.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Unlock runs one unlock attempt (POST /api/v1/unlock).
func (h *Handler) Unlock(c echo.Context) error {
	var input AttemptInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	outcome, err := h.service.Attempt(c.Request().Context(), input)
	if err != nil {
		return err
	}

	if outcome.Ceremony != nil {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ceremony",
			"ceremony": outcome.Ceremony,
		})
	}
	return c.JSON(http.StatusOK, unlockedResponse(outcome))
}

// FinishUnlock completes a platform ceremony (POST /api/v1/unlock/finish).
func (h *Handler) FinishUnlock(c echo.Context) error {
	var req biometric.FinishRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	outcome, err := h.service.FinishBiometric(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unlockedResponse(outcome))
}

// Status reports failed attempts and guidance (GET /api/v1/unlock/status).
// The lock screen polls this to decide when to suggest the password
// fallback.
func (h *Handler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}

func unlockedResponse(outcome Outcome) map[string]any {
	resp := map[string]any{
		"status":      "unlocked",
		"currentUser": outcome.Username,
	}
	if outcome.Simulated {
		resp["simulated"] = true
	}
	if outcome.Enrolled {
		resp["enrolled"] = true
	}
	return resp
}
