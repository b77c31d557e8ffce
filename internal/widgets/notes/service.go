package notes

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/sanitize"
)

// NoteService defines the business logic contract for notes. Every
// operation takes the owning username; ownership is enforced here, not in
// the handlers.
type NoteService interface {
	Create(ctx context.Context, username string, req CreateNoteRequest) (*Note, error)
	GetByID(ctx context.Context, username, id string) (*Note, error)
	Update(ctx context.Context, username, id string, req UpdateNoteRequest) (*Note, error)
	Delete(ctx context.Context, username, id string) error
	List(ctx context.Context, username string) ([]Note, error)
	Search(ctx context.Context, username, query string) ([]Note, error)
}

// noteService implements NoteService.
type noteService struct {
	repo NoteRepository
}

// NewNoteService creates a new note service.
func NewNoteService(repo NoteRepository) NoteService {
	return &noteService{repo: repo}
}

// Create validates, sanitizes, and persists a new note.
func (s *noteService) Create(ctx context.Context, username string, req CreateNoteRequest) (*Note, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.NewValidation("note title is required")
	}

	color := req.Color
	if color == "" {
		color = DefaultColor
	}

	note := &Note{
		ID:       uuid.NewString(),
		Username: username,
		Title:    title,
		Content:  sanitize.HTML(req.Content),
		Color:    color,
		Pinned:   req.Pinned,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, note.ID)
}

// GetByID retrieves a note, enforcing ownership.
func (s *noteService) GetByID(ctx context.Context, username, id string) (*Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Username != username {
		// Hide other users' notes entirely rather than admitting they exist.
		return nil, apperror.NewNotFound("note not found")
	}
	return note, nil
}

// Update applies partial changes to an owned note.
func (s *noteService) Update(ctx context.Context, username, id string, req UpdateNoteRequest) (*Note, error) {
	note, err := s.GetByID(ctx, username, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.NewValidation("note title is required")
		}
		note.Title = title
	}
	if req.Content != nil {
		note.Content = sanitize.HTML(*req.Content)
	}
	if req.Color != nil {
		note.Color = *req.Color
	}
	if req.Pinned != nil {
		note.Pinned = *req.Pinned
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes an owned note.
func (s *noteService) Delete(ctx context.Context, username, id string) error {
	if _, err := s.GetByID(ctx, username, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns the user's notes, pinned first.
func (s *noteService) List(ctx context.Context, username string) ([]Note, error) {
	return s.repo.ListByUser(ctx, username)
}

// Search filters the user's notes by substring. A blank query lists
// everything.
func (s *noteService) Search(ctx context.Context, username, query string) ([]Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListByUser(ctx, username)
	}
	return s.repo.SearchByUser(ctx, username, query)
}
