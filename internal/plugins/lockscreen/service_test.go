package lockscreen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/config"
	"github.com/bionotes/bionotes/internal/kvstore"
	"github.com/bionotes/bionotes/internal/plugins/biometric"
	"github.com/bionotes/bionotes/internal/plugins/session"
)

// mockCredentials is a function-field mock of the credentials service.
type mockCredentials struct {
	registerFn     func(ctx context.Context, username, password string) error
	authenticateFn func(ctx context.Context, username, password string) error
	currentUserFn  func(ctx context.Context) (string, bool, error)
	logoutFn       func(ctx context.Context) error
}

func (m *mockCredentials) Register(ctx context.Context, username, password string) error {
	return m.registerFn(ctx, username, password)
}

func (m *mockCredentials) Authenticate(ctx context.Context, username, password string) error {
	return m.authenticateFn(ctx, username, password)
}

func (m *mockCredentials) CurrentUser(ctx context.Context) (string, bool, error) {
	return m.currentUserFn(ctx)
}

func (m *mockCredentials) Logout(ctx context.Context) error {
	return m.logoutFn(ctx)
}

type fixture struct {
	service  *Service
	creds    *mockCredentials
	bridge   *biometric.Bridge
	sessions *session.Controller
	store    kvstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kvstore.NewMemory()

	bridge := biometric.NewBridge(config.WebAuthnConfig{
		RPDisplayName:   "BioNotes",
		RPID:            "localhost",
		RPOrigins:       []string{"http://localhost:8080"},
		CeremonyTimeout: 60 * time.Second,
		SessionTTL:      5 * time.Minute,
	}, biometric.NewHandleRepository(store), biometric.NewMemorySessionStore(), logger)

	creds := &mockCredentials{
		currentUserFn: func(context.Context) (string, bool, error) { return "alice", true, nil },
	}
	sessions := session.NewController(time.Hour, logger)
	simulated := biometric.NewSimulatedAuthenticator(time.Millisecond, logger)

	return &fixture{
		service:  NewService(creds, bridge, simulated, sessions, logger),
		creds:    creds,
		bridge:   bridge,
		sessions: sessions,
		store:    store,
	}
}

func assertErrType(t *testing.T, err error, wantType string) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Type != wantType {
		t.Fatalf("expected error type %q, got %q", wantType, appErr.Type)
	}
}

func TestAttempt_PasswordUnlocks(t *testing.T) {
	f := newFixture(t)
	f.creds.authenticateFn = func(_ context.Context, username, password string) error {
		if username == "alice" && password == "correct horse" {
			return nil
		}
		return apperror.NewWrongPassword()
	}

	outcome, err := f.service.Attempt(context.Background(), AttemptInput{
		Mode: ModePassword, Username: "alice", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !outcome.Unlocked || outcome.Username != "alice" {
		t.Fatalf("expected unlocked outcome for alice, got %+v", outcome)
	}
	if f.sessions.State() != session.StateUnlocked {
		t.Fatal("expected session unlocked")
	}
}

func TestAttempt_RegisterUnlocksLikeLogin(t *testing.T) {
	f := newFixture(t)
	f.creds.registerFn = func(context.Context, string, string) error { return nil }

	outcome, err := f.service.Attempt(context.Background(), AttemptInput{
		Mode: ModePassword, Register: true, Username: "bob", Password: "pw",
	})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !outcome.Unlocked {
		t.Fatal("expected registration to unlock")
	}
	if f.sessions.State() != session.StateUnlocked {
		t.Fatal("expected session unlocked after registration")
	}
}

func TestAttempt_FailuresCountAndSuccessResets(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.creds.authenticateFn = func(context.Context, string, string) error {
		calls++
		if calls < 3 {
			return apperror.NewWrongPassword()
		}
		return nil
	}
	ctx := context.Background()
	input := AttemptInput{Mode: ModePassword, Username: "alice", Password: "pw"}

	if _, err := f.service.Attempt(ctx, input); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if got := f.service.Attempts(); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
	if status := f.service.Status(); status.Guidance != "" {
		t.Fatalf("no guidance expected after one failure, got %q", status.Guidance)
	}

	if _, err := f.service.Attempt(ctx, input); err == nil {
		t.Fatal("expected second attempt to fail")
	}
	if status := f.service.Status(); status.Attempts != 2 || status.Guidance == "" {
		t.Fatalf("expected guidance after repeated failures, got %+v", status)
	}
	if f.sessions.State() != session.StateLocked {
		t.Fatal("failures must not unlock")
	}

	if _, err := f.service.Attempt(ctx, input); err != nil {
		t.Fatalf("expected third attempt to succeed: %v", err)
	}
	if got := f.service.Attempts(); got != 0 {
		t.Fatalf("expected counter reset on success, got %d", got)
	}
}

func TestAttempt_BiometricRequiresCurrentUser(t *testing.T) {
	f := newFixture(t)
	f.creds.currentUserFn = func(context.Context) (string, bool, error) { return "", false, nil }

	_, err := f.service.Attempt(context.Background(), AttemptInput{Mode: ModeBiometric})
	assertErrType(t, err, apperror.TypeUserNotFound)
	if f.service.Attempts() != 1 {
		t.Fatalf("expected failure recorded, got %d", f.service.Attempts())
	}
}

func TestAttempt_BiometricUnavailableUsesSimulatedFallback(t *testing.T) {
	f := newFixture(t)

	// No capability was ever reported, so the platform counts as
	// unavailable and a real ceremony must never start.
	outcome, err := f.service.Attempt(context.Background(), AttemptInput{Mode: ModeBiometric})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !outcome.Unlocked || !outcome.Simulated {
		t.Fatalf("expected simulated unlock, got %+v", outcome)
	}
	if outcome.Ceremony != nil {
		t.Fatal("simulated fallback must not start a ceremony")
	}
	if f.sessions.State() != session.StateUnlocked {
		t.Fatal("expected session unlocked")
	}
	if f.service.Attempts() != 0 {
		t.Fatalf("expected counter reset, got %d", f.service.Attempts())
	}
}

func TestAttempt_BiometricAvailableReturnsCeremony(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bridge.ReportAvailability(ctx, biometric.AvailabilityReport{Available: true}); err != nil {
		t.Fatalf("report availability: %v", err)
	}

	outcome, err := f.service.Attempt(ctx, AttemptInput{Mode: ModeBiometric})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if outcome.Unlocked {
		t.Fatal("a pending ceremony must not unlock yet")
	}
	if outcome.Ceremony == nil {
		t.Fatal("expected a ceremony to complete")
	}
	if outcome.Ceremony.Kind != biometric.CeremonyEnroll {
		t.Fatalf("first ceremony should enroll, got %q", outcome.Ceremony.Kind)
	}
	if f.sessions.State() != session.StateLocked {
		t.Fatal("session must stay locked until the ceremony finishes")
	}
}

func TestFinishBiometric_PlatformErrorKeepsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.bridge.ReportAvailability(ctx, biometric.AvailabilityReport{Available: true}); err != nil {
		t.Fatalf("report availability: %v", err)
	}
	outcome, err := f.service.Attempt(ctx, AttemptInput{Mode: ModeBiometric})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}

	_, err = f.service.FinishBiometric(ctx, biometric.FinishRequest{
		SessionID: outcome.Ceremony.SessionID,
		Error:     &biometric.CeremonyError{Name: "NotAllowedError"},
	})
	assertErrType(t, err, apperror.TypeCeremonyFailed)

	if f.sessions.State() != session.StateLocked {
		t.Fatal("failed ceremony must not unlock")
	}
	if f.service.Attempts() != 1 {
		t.Fatalf("expected failure recorded, got %d", f.service.Attempts())
	}
}

func TestAttempt_UnknownModeRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Attempt(context.Background(), AttemptInput{Mode: "retina"})
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
}

// TestLockScreenFlow walks the full lock screen lifecycle: register and
// unlock, lock on visibility loss, fail a password, recover, then fall back
// to the simulated authenticator.
func TestLockScreenFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered := map[string]string{}
	f.creds.registerFn = func(_ context.Context, username, password string) error {
		registered[username] = password
		return nil
	}
	f.creds.authenticateFn = func(_ context.Context, username, password string) error {
		if stored, ok := registered[username]; ok && stored == password {
			return nil
		}
		return apperror.NewWrongPassword()
	}

	// Day one: create the account.
	if _, err := f.service.Attempt(ctx, AttemptInput{Mode: ModePassword, Register: true, Username: "alice", Password: "pw1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if f.sessions.State() != session.StateUnlocked {
		t.Fatal("expected unlock after registration")
	}

	// Switching away locks immediately.
	f.sessions.VisibilityHidden()
	if f.sessions.State() != session.StateLocked {
		t.Fatal("expected lock on visibility loss")
	}

	// A typo, then the right password.
	if _, err := f.service.Attempt(ctx, AttemptInput{Mode: ModePassword, Username: "alice", Password: "bad"}); err == nil {
		t.Fatal("expected wrong password to fail")
	}
	if f.service.Attempts() != 1 {
		t.Fatalf("expected 1 failed attempt, got %d", f.service.Attempts())
	}
	if _, err := f.service.Attempt(ctx, AttemptInput{Mode: ModePassword, Username: "alice", Password: "pw1"}); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	// Locked again, this time unlock biometrically. No platform is
	// available here, so the simulated fallback engages.
	f.sessions.VisibilityHidden()
	outcome, err := f.service.Attempt(ctx, AttemptInput{Mode: ModeBiometric})
	if err != nil {
		t.Fatalf("biometric attempt: %v", err)
	}
	if !outcome.Simulated {
		t.Fatal("expected the simulated fallback")
	}
	if f.sessions.State() != session.StateUnlocked {
		t.Fatal("expected unlocked at end of flow")
	}
}
