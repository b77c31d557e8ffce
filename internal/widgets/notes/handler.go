package notes

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/apperror"
)

// UserResolver supplies the current username. Satisfied by the credentials
// service.
type UserResolver interface {
	CurrentUser(ctx context.Context) (string, bool, error)
}

// Handler handles HTTP requests for note operations. Handlers are thin:
// bind request, call service, render response. No business logic lives here.
type Handler struct {
	service NoteService
	users   UserResolver
}

// NewHandler creates a new note handler backed by the given service.
func NewHandler(service NoteService, users UserResolver) *Handler {
	return &Handler{service: service, users: users}
}

// username resolves the owner of the request. The session guard already
// rejected locked requests, but an unlocked session with no marker (should
// not happen) still must not leak notes.
func (h *Handler) username(c echo.Context) (string, error) {
	username, ok, err := h.users.CurrentUser(c.Request().Context())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperror.NewUserNotFound()
	}
	return username, nil
}

// List returns the current user's notes (GET /api/v1/notes). An optional
// ?q= filters by substring of title or content.
func (h *Handler) List(c echo.Context) error {
	username, err := h.username(c)
	if err != nil {
		return err
	}

	notes, err := h.service.Search(c.Request().Context(), username, c.QueryParam("q"))
	if err != nil {
		return err
	}
	if notes == nil {
		notes = []Note{}
	}
	return c.JSON(http.StatusOK, notes)
}

// Get returns a single note (GET /api/v1/notes/:id).
func (h *Handler) Get(c echo.Context) error {
	username, err := h.username(c)
	if err != nil {
		return err
	}

	note, err := h.service.GetByID(c.Request().Context(), username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Create adds a new note (POST /api/v1/notes).
func (h *Handler) Create(c echo.Context) error {
	username, err := h.username(c)
	if err != nil {
		return err
	}

	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	note, err := h.service.Create(c.Request().Context(), username, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

// Update applies partial changes to a note (PATCH /api/v1/notes/:id).
func (h *Handler) Update(c echo.Context) error {
	username, err := h.username(c)
	if err != nil {
		return err
	}

	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	note, err := h.service.Update(c.Request().Context(), username, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// Delete removes a note (DELETE /api/v1/notes/:id).
func (h *Handler) Delete(c echo.Context) error {
	username, err := h.username(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), username, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
