package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bionotes/bionotes/internal/apperror"
)

// NoteRepository defines the data access contract for note operations.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	FindByID(ctx context.Context, id string) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id string) error

	// ListByUser returns all notes owned by a user, pinned first, most
	// recently updated first.
	ListByUser(ctx context.Context, username string) ([]Note, error)

	// SearchByUser returns the user's notes whose title or content contains
	// the query, case-insensitively.
	SearchByUser(ctx context.Context, username, query string) ([]Note, error)
}

// noteRepository is the MariaDB implementation of NoteRepository.
type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new MariaDB-backed note repository.
func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepository{db: db}
}

// noteColumns is the SELECT column list for notes queries.
const noteColumns = `id, username, title, content, color, pinned, created_at, updated_at`

// Create inserts a new note into the database.
func (r *noteRepository) Create(ctx context.Context, note *Note) error {
	query := `INSERT INTO notes (id, username, title, content, color, pinned)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.Username, note.Title, note.Content, note.Color, note.Pinned,
	)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// FindByID retrieves a note by its ID.
func (r *noteRepository) FindByID(ctx context.Context, id string) (*Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	return r.scanNote(r.db.QueryRowContext(ctx, query, id))
}

// Update saves changes to an existing note.
func (r *noteRepository) Update(ctx context.Context, note *Note) error {
	query := `UPDATE notes
		SET title = ?, content = ?, color = ?, pinned = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		note.Title, note.Content, note.Color, note.Pinned, note.ID,
	)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// Delete removes a note from the database.
func (r *noteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// ListByUser returns the user's notes, pinned first, newest edits first.
func (r *noteRepository) ListByUser(ctx context.Context, username string) ([]Note, error) {
	query := `SELECT ` + noteColumns + `
		FROM notes WHERE username = ?
		ORDER BY pinned DESC, updated_at DESC`
	return r.scanNotes(ctx, query, username)
}

// SearchByUser filters the user's notes by a substring of title or content.
func (r *noteRepository) SearchByUser(ctx context.Context, username, query string) ([]Note, error) {
	like := "%" + escapeLike(query) + "%"
	stmt := `SELECT ` + noteColumns + `
		FROM notes
		WHERE username = ? AND (title LIKE ? OR content LIKE ?)
		ORDER BY pinned DESC, updated_at DESC`
	return r.scanNotes(ctx, stmt, username, like, like)
}

// escapeLike escapes LIKE metacharacters so user queries match literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// scanNote scans a single note row.
func (r *noteRepository) scanNote(row *sql.Row) (*Note, error) {
	n := &Note{}
	err := row.Scan(
		&n.ID, &n.Username, &n.Title, &n.Content,
		&n.Color, &n.Pinned, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("note not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	return n, nil
}

// scanNotes runs a query and scans multiple note rows.
func (r *noteRepository) scanNotes(ctx context.Context, query string, args ...any) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n := Note{}
		if err := rows.Scan(
			&n.ID, &n.Username, &n.Title, &n.Content,
			&n.Color, &n.Pinned, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
