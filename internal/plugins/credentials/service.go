package credentials

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/bionotes/bionotes/internal/apperror"
)

// argon2id parameters tuned for a self-hosted application running on
// modest hardware (2-4 CPU cores, 2-4 GB RAM). These follow OWASP
// recommendations for argon2id: memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Service defines the business logic contract for the credential store.
// Handlers and the unlock orchestrator call these methods -- they never
// touch the repository directly.
type Service interface {
	// Register adds a new user and sets the current-user marker. Fails with
	// a duplicate-username error if the username already exists; the stored
	// collection is never mutated on failure.
	Register(ctx context.Context, username, password string) error

	// Authenticate verifies a username/password pair against the stored
	// collection and sets the current-user marker on success.
	Authenticate(ctx context.Context, username, password string) error

	// CurrentUser returns the marker and whether it is set.
	CurrentUser(ctx context.Context) (string, bool, error)

	// Logout clears the marker only; registered users remain.
	Logout(ctx context.Context) error
}

// service implements Service with argon2id hashing over the repository.
type service struct {
	repo UserRepository
}

// NewService creates a credential service over the given repository.
func NewService(repo UserRepository) Service {
	return &service{repo: repo}
}

// Register appends a user to the collection, persists it, and sets the
// current-user marker. Usernames are case-sensitive: "Alice" and "alice"
// are distinct identities.
func (s *service) Register(ctx context.Context, username, password string) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return apperror.NewStorageFailure(err)
	}

	for _, u := range users {
		if u.Username == username {
			return apperror.NewDuplicateUsername(username)
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	users = append(users, User{Username: username, PasswordHash: hash})
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return apperror.NewStorageFailure(err)
	}
	if err := s.repo.SetCurrentUser(ctx, username); err != nil {
		return apperror.NewStorageFailure(err)
	}

	slog.Info("user registered", slog.String("username", username))
	return nil
}

// Authenticate looks up the user by exact username match and verifies the
// password against the stored argon2id hash.
func (s *service) Authenticate(ctx context.Context, username, password string) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return apperror.NewStorageFailure(err)
	}

	var found *User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
			break
		}
	}
	if found == nil {
		return apperror.NewUserNotFound()
	}

	if !verifyPassword(password, found.PasswordHash) {
		return apperror.NewWrongPassword()
	}

	if err := s.repo.SetCurrentUser(ctx, username); err != nil {
		return apperror.NewStorageFailure(err)
	}

	slog.Info("user logged in", slog.String("username", username))
	return nil
}

// CurrentUser reads the marker.
func (s *service) CurrentUser(ctx context.Context) (string, bool, error) {
	username, ok, err := s.repo.CurrentUser(ctx)
	if err != nil {
		return "", false, apperror.NewStorageFailure(err)
	}
	return username, ok, nil
}

// Logout clears the current-user marker. Registered users are untouched, so
// the same identity can log back in with password or enrolled biometrics.
func (s *service) Logout(ctx context.Context) error {
	if err := s.repo.ClearCurrentUser(ctx); err != nil {
		return apperror.NewStorageFailure(err)
	}
	slog.Info("user logged out")
	return nil
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing side-channel attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
