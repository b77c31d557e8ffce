package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/kvstore"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	listUsersFn        func(ctx context.Context) ([]User, error)
	saveUsersFn        func(ctx context.Context, users []User) error
	currentUserFn      func(ctx context.Context) (string, bool, error)
	setCurrentUserFn   func(ctx context.Context, username string) error
	clearCurrentUserFn func(ctx context.Context) error
}

func (m *mockUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) SaveUsers(ctx context.Context, users []User) error {
	if m.saveUsersFn != nil {
		return m.saveUsersFn(ctx, users)
	}
	return nil
}

func (m *mockUserRepo) CurrentUser(ctx context.Context) (string, bool, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx)
	}
	return "", false, nil
}

func (m *mockUserRepo) SetCurrentUser(ctx context.Context, username string) error {
	if m.setCurrentUserFn != nil {
		return m.setCurrentUserFn(ctx, username)
	}
	return nil
}

func (m *mockUserRepo) ClearCurrentUser(ctx context.Context) error {
	if m.clearCurrentUserFn != nil {
		return m.clearCurrentUserFn(ctx)
	}
	return nil
}

// --- Test Helpers ---

// assertErrType checks that err is an *apperror.AppError with the expected Type.
func assertErrType(t *testing.T, err error, expectedType string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", expectedType)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Type != expectedType {
		t.Errorf("expected error type %s, got %s (message: %s)", expectedType, appErr.Type, appErr.Message)
	}
}

// mustHash hashes a password or fails the test.
func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	return hash
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	var savedUsers []User
	var marker string
	repo := &mockUserRepo{
		saveUsersFn: func(ctx context.Context, users []User) error {
			savedUsers = users
			return nil
		},
		setCurrentUserFn: func(ctx context.Context, username string) error {
			marker = username
			return nil
		},
	}

	svc := NewService(repo)
	if err := svc.Register(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(savedUsers) != 1 || savedUsers[0].Username != "alice" {
		t.Fatalf("expected collection [alice], got %+v", savedUsers)
	}
	if savedUsers[0].PasswordHash == "" || savedUsers[0].PasswordHash == "pw1" {
		t.Error("expected password to be stored hashed")
	}
	if marker != "alice" {
		t.Errorf("expected current user marker alice, got %q", marker)
	}
}

func TestRegister_DuplicateUsernameDoesNotMutate(t *testing.T) {
	saveCalls := 0
	repo := &mockUserRepo{
		listUsersFn: func(ctx context.Context) ([]User, error) {
			return []User{{Username: "alice", PasswordHash: mustHash(t, "pw1")}}, nil
		},
		saveUsersFn: func(ctx context.Context, users []User) error {
			saveCalls++
			return nil
		},
	}

	svc := NewService(repo)
	err := svc.Register(context.Background(), "alice", "other")
	assertErrType(t, err, apperror.TypeDuplicateUsername)
	if saveCalls != 0 {
		t.Error("duplicate registration must not write the collection")
	}
}

func TestRegister_UsernamesAreCaseSensitive(t *testing.T) {
	repo := &mockUserRepo{
		listUsersFn: func(ctx context.Context) ([]User, error) {
			return []User{{Username: "alice", PasswordHash: mustHash(t, "pw1")}}, nil
		},
	}

	svc := NewService(repo)
	if err := svc.Register(context.Background(), "Alice", "pw2"); err != nil {
		t.Fatalf("expected Alice to be distinct from alice, got %v", err)
	}
}

func TestRegister_StorageFailurePropagates(t *testing.T) {
	repo := &mockUserRepo{
		saveUsersFn: func(ctx context.Context, users []User) error {
			return errors.New("quota exceeded")
		},
	}

	svc := NewService(repo)
	err := svc.Register(context.Background(), "alice", "pw1")
	assertErrType(t, err, apperror.TypeStorageFailure)
}

// --- Authenticate Tests ---

func TestAuthenticate(t *testing.T) {
	hash := mustHash(t, "pw1")
	repo := &mockUserRepo{
		listUsersFn: func(ctx context.Context) ([]User, error) {
			return []User{{Username: "alice", PasswordHash: hash}}, nil
		},
	}
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	assertErrType(t, svc.Authenticate(ctx, "alice", "bad"), apperror.TypeWrongPassword)
	assertErrType(t, svc.Authenticate(ctx, "bob", "anything"), apperror.TypeUserNotFound)
}

func TestAuthenticate_SetsMarkerOnlyOnSuccess(t *testing.T) {
	var marker string
	hash := mustHash(t, "pw1")
	repo := &mockUserRepo{
		listUsersFn: func(ctx context.Context) ([]User, error) {
			return []User{{Username: "alice", PasswordHash: hash}}, nil
		},
		setCurrentUserFn: func(ctx context.Context, username string) error {
			marker = username
			return nil
		},
	}
	svc := NewService(repo)
	ctx := context.Background()

	_ = svc.Authenticate(ctx, "alice", "bad")
	if marker != "" {
		t.Error("failed login must not set the marker")
	}

	if err := svc.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if marker != "alice" {
		t.Errorf("expected marker alice, got %q", marker)
	}
}

// --- Logout / CurrentUser Tests ---

func TestLogout_ClearsMarkerKeepsUsers(t *testing.T) {
	store := kvstore.NewMemory()
	repo := NewUserRepository(store)
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if username, ok, _ := svc.CurrentUser(ctx); !ok || username != "alice" {
		t.Fatalf("expected current user alice, got (%q, %v)", username, ok)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok, _ := svc.CurrentUser(ctx); ok {
		t.Error("expected marker to be cleared after logout")
	}

	// The user collection survives; the same credentials still work.
	if err := svc.Authenticate(ctx, "alice", "pw1"); err != nil {
		t.Errorf("expected alice to still be registered: %v", err)
	}
}

// --- KV round-trip ---

func TestRepository_PersistsAsJSONCollection(t *testing.T) {
	store := kvstore.NewMemory()
	repo := NewUserRepository(store)
	ctx := context.Background()

	if err := repo.SaveUsers(ctx, []User{{Username: "alice", PasswordHash: "h1"}, {Username: "bob", PasswordHash: "h2"}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Errorf("unexpected collection: %+v", users)
	}

	raw, ok, _ := store.Get(ctx, "users")
	if !ok || raw == "" {
		t.Fatal("expected users key to be written")
	}
}

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	password := "my-secret-password-123"

	hash := mustHash(t, password)

	// Correct password should verify.
	if !verifyPassword(password, hash) {
		t.Error("expected correct password to verify")
	}

	// Wrong password should not verify.
	if verifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty string", ""},
		{"random text", "not-a-hash"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"corrupted salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid$aGFzaA"},
		{"corrupted hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("password", tt.hash) {
				t.Error("expected invalid hash to fail verification")
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1 := mustHash(t, "same-password")
	hash2 := mustHash(t, "same-password")
	if hash1 == hash2 {
		t.Error("expected different salts to produce different hashes")
	}
}
