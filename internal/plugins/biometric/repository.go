package biometric

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bionotes/bionotes/internal/kvstore"
)

// Key-value layout. The handle is deployment-scoped, not user-scoped: one
// platform credential per profile, matching the single-device lock screen
// this serves.
const (
	keyPlatformUserID       = "platformUserId"
	keyPlatformCredentialID = "platformCredentialId"
	keyPlatformCredential   = "platformCredential"
	keyPlatformAvailable    = "platformAvailable"
	keyPlatformKind         = "platformBiometryKind"
)

// HandleRepository persists the platform credential handle and the stable
// user ID the authenticator scopes credentials to.
type HandleRepository interface {
	// PlatformUserID returns the stable identifier presented to the
	// authenticator, creating and persisting one on first use.
	PlatformUserID(ctx context.Context) (string, error)

	// CredentialHandle returns the cached credential handle, if any.
	CredentialHandle(ctx context.Context) (string, bool, error)

	// SaveCredential stores the handle and the serialized credential it
	// identifies.
	SaveCredential(ctx context.Context, handle string, credential []byte) error

	// Credential returns the serialized credential for assertion checks.
	Credential(ctx context.Context) ([]byte, bool, error)

	// EraseCredential removes the handle and credential so the next
	// authentication re-enters enrollment.
	EraseCredential(ctx context.Context) error

	// Availability returns the last capability signal reported by a client,
	// or ok=false when none was ever reported.
	Availability(ctx context.Context) (available bool, kind string, ok bool, err error)

	// SaveAvailability records a client capability signal.
	SaveAvailability(ctx context.Context, available bool, kind string) error
}

type kvHandleRepository struct {
	store kvstore.Store
}

// NewHandleRepository creates a HandleRepository over the key-value store.
func NewHandleRepository(store kvstore.Store) HandleRepository {
	return &kvHandleRepository{store: store}
}

func (r *kvHandleRepository) PlatformUserID(ctx context.Context) (string, error) {
	id, ok, err := r.store.Get(ctx, keyPlatformUserID)
	if err != nil {
		return "", fmt.Errorf("loading platform user id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := r.store.Set(ctx, keyPlatformUserID, id); err != nil {
		return "", fmt.Errorf("saving platform user id: %w", err)
	}
	return id, nil
}

func (r *kvHandleRepository) CredentialHandle(ctx context.Context) (string, bool, error) {
	handle, ok, err := r.store.Get(ctx, keyPlatformCredentialID)
	if err != nil {
		return "", false, fmt.Errorf("loading credential handle: %w", err)
	}
	return handle, ok && handle != "", nil
}

func (r *kvHandleRepository) SaveCredential(ctx context.Context, handle string, credential []byte) error {
	if err := r.store.Set(ctx, keyPlatformCredentialID, handle); err != nil {
		return fmt.Errorf("saving credential handle: %w", err)
	}
	if err := r.store.Set(ctx, keyPlatformCredential, string(credential)); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

func (r *kvHandleRepository) Credential(ctx context.Context) ([]byte, bool, error) {
	raw, ok, err := r.store.Get(ctx, keyPlatformCredential)
	if err != nil {
		return nil, false, fmt.Errorf("loading credential: %w", err)
	}
	if !ok || raw == "" {
		return nil, false, nil
	}
	return []byte(raw), true, nil
}

func (r *kvHandleRepository) EraseCredential(ctx context.Context) error {
	if err := r.store.Delete(ctx, keyPlatformCredentialID); err != nil {
		return fmt.Errorf("erasing credential handle: %w", err)
	}
	if err := r.store.Delete(ctx, keyPlatformCredential); err != nil {
		return fmt.Errorf("erasing credential: %w", err)
	}
	return nil
}

func (r *kvHandleRepository) Availability(ctx context.Context) (bool, string, bool, error) {
	avail, ok, err := r.store.Get(ctx, keyPlatformAvailable)
	if err != nil {
		return false, "", false, fmt.Errorf("loading availability: %w", err)
	}
	if !ok {
		return false, "", false, nil
	}
	kind, _, err := r.store.Get(ctx, keyPlatformKind)
	if err != nil {
		return false, "", false, fmt.Errorf("loading biometry kind: %w", err)
	}
	return avail == "true", kind, true, nil
}

func (r *kvHandleRepository) SaveAvailability(ctx context.Context, available bool, kind string) error {
	val := "false"
	if available {
		val = "true"
	}
	if err := r.store.Set(ctx, keyPlatformAvailable, val); err != nil {
		return fmt.Errorf("saving availability: %w", err)
	}
	if err := r.store.Set(ctx, keyPlatformKind, kind); err != nil {
		return fmt.Errorf("saving biometry kind: %w", err)
	}
	return nil
}
