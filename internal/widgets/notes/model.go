// Package notes implements the note-taking widget behind the lock screen.
// Notes are per-user records: colored, pinnable cards with a title and a
// sanitized HTML body. Every notes endpoint sits behind the session guard,
// so nothing here is reachable while the application is locked.
package notes

import "time"

// DefaultColor is applied when a note is created without one.
const DefaultColor = "yellow"

// Note represents a single user note.
type Note struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// --- Request DTOs ---

// CreateNoteRequest holds the data submitted when creating a new note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
	Pinned  bool   `json:"pinned,omitempty"`
}

// UpdateNoteRequest holds the data submitted when updating a note. Nil
// fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Color   *string `json:"color,omitempty"`
	Pinned  *bool   `json:"pinned,omitempty"`
}
