package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bionotes/bionotes/internal/apperror"
)

// --- Mock Repository ---

// mockNoteRepo implements NoteRepository for testing.
type mockNoteRepo struct {
	createFn       func(ctx context.Context, note *Note) error
	findByIDFn     func(ctx context.Context, id string) (*Note, error)
	updateFn       func(ctx context.Context, note *Note) error
	deleteFn       func(ctx context.Context, id string) error
	listByUserFn   func(ctx context.Context, username string) ([]Note, error)
	searchByUserFn func(ctx context.Context, username, query string) ([]Note, error)
}

func (m *mockNoteRepo) Create(ctx context.Context, note *Note) error {
	if m.createFn != nil {
		return m.createFn(ctx, note)
	}
	return nil
}

func (m *mockNoteRepo) FindByID(ctx context.Context, id string) (*Note, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("note not found")
}

func (m *mockNoteRepo) Update(ctx context.Context, note *Note) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, note)
	}
	return nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockNoteRepo) ListByUser(ctx context.Context, username string) ([]Note, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, username)
	}
	return nil, nil
}

func (m *mockNoteRepo) SearchByUser(ctx context.Context, username, query string) ([]Note, error) {
	if m.searchByUserFn != nil {
		return m.searchByUserFn(ctx, username, query)
	}
	return nil, nil
}

// --- Test Helpers ---

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Fatalf("expected code %d, got %d (%v)", expectedCode, appErr.Code, appErr)
	}
}

// echoRepo stores one note and echoes it back, for create/update round trips.
func echoRepo() (*mockNoteRepo, *Note) {
	var stored Note
	repo := &mockNoteRepo{}
	repo.createFn = func(_ context.Context, note *Note) error {
		stored = *note
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
		return nil
	}
	repo.updateFn = func(_ context.Context, note *Note) error {
		stored = *note
		stored.UpdatedAt = time.Now()
		return nil
	}
	repo.findByIDFn = func(_ context.Context, id string) (*Note, error) {
		if stored.ID != id {
			return nil, apperror.NewNotFound("note not found")
		}
		n := stored
		return &n, nil
	}
	return repo, &stored
}

// --- Create ---

func TestCreateNote(t *testing.T) {
	repo, _ := echoRepo()
	svc := NewNoteService(repo)

	note, err := svc.Create(context.Background(), "alice", CreateNoteRequest{
		Title:   "  Groceries  ",
		Content: "<p>milk</p>",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if note.Title != "Groceries" {
		t.Errorf("expected trimmed title, got %q", note.Title)
	}
	if note.Username != "alice" {
		t.Errorf("expected owner alice, got %q", note.Username)
	}
	if note.Color != DefaultColor {
		t.Errorf("expected default color, got %q", note.Color)
	}
	if note.ID == "" {
		t.Error("expected generated id")
	}
}

func TestCreateNote_EmptyTitleRejected(t *testing.T) {
	svc := NewNoteService(&mockNoteRepo{})

	_, err := svc.Create(context.Background(), "alice", CreateNoteRequest{Title: "   "})
	assertAppError(t, err, 400)
}

func TestCreateNote_SanitizesContent(t *testing.T) {
	repo, _ := echoRepo()
	svc := NewNoteService(repo)

	note, err := svc.Create(context.Background(), "alice", CreateNoteRequest{
		Title:   "xss",
		Content: `<p>hi</p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.Contains(note.Content, "<script>") {
		t.Errorf("script tag survived sanitization: %q", note.Content)
	}
	if !strings.Contains(note.Content, "<p>hi</p>") {
		t.Errorf("safe markup lost: %q", note.Content)
	}
}

// --- Ownership ---

func TestGetByID_OtherUsersNoteHidden(t *testing.T) {
	repo := &mockNoteRepo{
		findByIDFn: func(_ context.Context, id string) (*Note, error) {
			return &Note{ID: id, Username: "bob", Title: "secret"}, nil
		},
	}
	svc := NewNoteService(repo)

	_, err := svc.GetByID(context.Background(), "alice", "n1")
	assertAppError(t, err, 404)
}

func TestDelete_OtherUsersNoteHidden(t *testing.T) {
	deleted := false
	repo := &mockNoteRepo{
		findByIDFn: func(_ context.Context, id string) (*Note, error) {
			return &Note{ID: id, Username: "bob"}, nil
		},
		deleteFn: func(context.Context, string) error {
			deleted = true
			return nil
		},
	}
	svc := NewNoteService(repo)

	err := svc.Delete(context.Background(), "alice", "n1")
	assertAppError(t, err, 404)
	if deleted {
		t.Error("delete must not reach the repository for foreign notes")
	}
}

// --- Update ---

func TestUpdateNote_PartialFields(t *testing.T) {
	repo, stored := echoRepo()
	svc := NewNoteService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", CreateNoteRequest{Title: "a", Content: "<p>1</p>", Color: "blue"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pinned := true
	updated, err := svc.Update(ctx, "alice", created.ID, UpdateNoteRequest{Pinned: &pinned})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Pinned {
		t.Error("expected pinned")
	}
	if updated.Title != "a" || updated.Color != "blue" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if stored.Content != "<p>1</p>" {
		t.Errorf("content changed without request: %q", stored.Content)
	}
}

func TestUpdateNote_BlankTitleRejected(t *testing.T) {
	repo, _ := echoRepo()
	svc := NewNoteService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", CreateNoteRequest{Title: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	blank := "  "
	_, err = svc.Update(ctx, "alice", created.ID, UpdateNoteRequest{Title: &blank})
	assertAppError(t, err, 400)
}

func TestUpdateNote_SanitizesContent(t *testing.T) {
	repo, _ := echoRepo()
	svc := NewNoteService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", CreateNoteRequest{Title: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	evil := `<img src=x onerror=alert(1)>`
	updated, err := svc.Update(ctx, "alice", created.ID, UpdateNoteRequest{Content: &evil})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if strings.Contains(updated.Content, "onerror") {
		t.Errorf("event handler survived sanitization: %q", updated.Content)
	}
}

// --- Search ---

func TestSearch_BlankQueryListsAll(t *testing.T) {
	listed := false
	searched := false
	repo := &mockNoteRepo{
		listByUserFn: func(context.Context, string) ([]Note, error) {
			listed = true
			return nil, nil
		},
		searchByUserFn: func(context.Context, string, string) ([]Note, error) {
			searched = true
			return nil, nil
		},
	}
	svc := NewNoteService(repo)

	if _, err := svc.Search(context.Background(), "alice", "   "); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !listed || searched {
		t.Errorf("blank query should list, not search (listed=%v searched=%v)", listed, searched)
	}
}

func TestSearch_PassesTrimmedQuery(t *testing.T) {
	var got string
	repo := &mockNoteRepo{
		searchByUserFn: func(_ context.Context, _, query string) ([]Note, error) {
			got = query
			return []Note{{ID: "n1"}}, nil
		},
	}
	svc := NewNoteService(repo)

	notes, err := svc.Search(context.Background(), "alice", "  milk ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != "milk" {
		t.Errorf("expected trimmed query, got %q", got)
	}
	if len(notes) != 1 {
		t.Errorf("expected repository results passed through, got %d", len(notes))
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
