package biometric

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/config"
)

// provider abstracts the webauthn library for testability.
type provider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// parser abstracts response parsing so tests can inject parsed structures.
type parser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultParser struct{}

func (defaultParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (defaultParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// Bridge mediates between the authentication flow and the platform
// authenticator. One Bridge serves one deployment profile.
type Bridge struct {
	cfg      config.WebAuthnConfig
	provider provider
	parser   parser
	initErr  error
	handles  HandleRepository
	sessions SessionStore
	logger   *slog.Logger
}

// NewBridge constructs the bridge. A webauthn setup failure is recorded
// rather than returned: the bridge stays constructible and reports
// unavailable, so the rest of the application keeps working with the
// simulated fallback.
func NewBridge(cfg config.WebAuthnConfig, handles HandleRepository, sessions SessionStore, logger *slog.Logger) *Bridge {
	w, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
		Timeouts: webauthn.TimeoutsConfig{
			Registration: webauthn.TimeoutConfig{Enforce: true, Timeout: cfg.CeremonyTimeout},
			Login:        webauthn.TimeoutConfig{Enforce: true, Timeout: cfg.CeremonyTimeout},
		},
	})

	b := &Bridge{
		cfg:      cfg,
		parser:   defaultParser{},
		handles:  handles,
		sessions: sessions,
		logger:   logger,
	}
	if err != nil {
		b.initErr = fmt.Errorf("webauthn setup: %w", err)
		logger.Warn("platform authenticator unavailable", "error", err)
		return b
	}
	b.provider = w
	return b
}

// CheckAvailability probes whether a real ceremony can run. It never
// returns an error: anything that prevents a definitive yes degrades to
// Available=false with the cause recorded on the result.
func (b *Bridge) CheckAvailability(ctx context.Context) Availability {
	if b.initErr != nil {
		return Availability{Available: false, Err: b.initErr}
	}

	available, kind, ok, err := b.handles.Availability(ctx)
	if err != nil {
		return Availability{Available: false, Err: err}
	}
	if !ok {
		// No client ever reported capability. Absence of evidence is a no.
		return Availability{Available: false}
	}

	result := Availability{Available: available}
	switch kind {
	case string(KindFingerprint):
		result.Kind = KindFingerprint
	default:
		if available {
			result.Kind = KindBiometrics
		}
	}
	return result
}

// ReportAvailability records the client's capability probe.
func (b *Bridge) ReportAvailability(ctx context.Context, report AvailabilityReport) error {
	if err := b.handles.SaveAvailability(ctx, report.Available, report.Kind); err != nil {
		return apperror.NewStorageFailure(err)
	}
	b.logger.Info("platform capability reported", "available", report.Available, "kind", report.Kind)
	return nil
}

// HasCredential reports whether a credential handle is cached.
func (b *Bridge) HasCredential(ctx context.Context) (bool, error) {
	_, ok, err := b.handles.CredentialHandle(ctx)
	if err != nil {
		return false, apperror.NewStorageFailure(err)
	}
	return ok, nil
}

// Begin starts a ceremony. With no cached handle it starts enrollment;
// with one it starts verification restricted to exactly that handle, so
// the platform cannot silently substitute another credential.
func (b *Bridge) Begin(ctx context.Context, prompt string) (*Ceremony, error) {
	if b.initErr != nil {
		return nil, apperror.NewPlatformUnavailable()
	}

	user, err := b.loadUser(ctx)
	if err != nil {
		return nil, err
	}

	handle, hasHandle, err := b.handles.CredentialHandle(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	var (
		kind    CeremonyKind
		options any
		session *webauthn.SessionData
	)

	if !hasHandle {
		kind = CeremonyEnroll
		creation, sess, beginErr := b.provider.BeginRegistration(user,
			webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
				AuthenticatorAttachment: protocol.Platform,
				ResidentKey:             protocol.ResidentKeyRequirementDiscouraged,
				UserVerification:        protocol.VerificationRequired,
			}),
			webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
			webauthn.WithCredentialParameters([]protocol.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
			}),
		)
		if beginErr != nil {
			return nil, apperror.NewCeremonyFailed("could not start enrollment")
		}
		options, session = creation, sess
	} else {
		credentialID, decodeErr := base64.RawURLEncoding.DecodeString(handle)
		if decodeErr != nil {
			// A corrupt handle behaves like an invalidated one.
			if eraseErr := b.handles.EraseCredential(ctx); eraseErr != nil {
				return nil, apperror.NewStorageFailure(eraseErr)
			}
			return b.Begin(ctx, prompt)
		}

		kind = CeremonyVerify
		assertion, sess, beginErr := b.provider.BeginLogin(user,
			webauthn.WithAllowedCredentials([]protocol.CredentialDescriptor{{
				Type:         protocol.PublicKeyCredentialType,
				CredentialID: credentialID,
				Transport:    []protocol.AuthenticatorTransport{protocol.Internal},
			}}),
			webauthn.WithUserVerification(protocol.VerificationRequired),
		)
		if beginErr != nil {
			return nil, apperror.NewCeremonyFailed("could not start verification")
		}
		options, session = assertion, sess
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encoding ceremony options: %w", err)
	}

	id := uuid.NewString()
	err = b.sessions.Put(ctx, id, ceremonySession{Kind: kind, Prompt: prompt, Session: *session}, b.cfg.SessionTTL)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	b.logger.Info("ceremony started", "kind", kind, "session", id)
	return &Ceremony{SessionID: id, Kind: kind, Options: optionsJSON, Prompt: prompt}, nil
}

// Finish completes a begun ceremony. A relayed platform error is classified
// first: the categories that mean the cached handle is permanently dead
// erase it, so the next Begin re-enters enrollment.
func (b *Bridge) Finish(ctx context.Context, req FinishRequest) (Result, error) {
	if req.Error != nil {
		return Result{}, b.failCeremony(ctx, req)
	}

	session, err := b.sessions.Take(ctx, req.SessionID)
	if err != nil {
		if err == ErrSessionNotFound {
			return Result{}, apperror.NewCeremonyFailed("ceremony expired or unknown")
		}
		return Result{}, apperror.NewStorageFailure(err)
	}

	user, err := b.loadUser(ctx)
	if err != nil {
		return Result{}, err
	}

	switch session.Kind {
	case CeremonyEnroll:
		parsed, parseErr := b.parser.ParseCredentialCreationResponseBytes(req.Response)
		if parseErr != nil {
			return Result{}, apperror.NewCeremonyFailed("malformed enrollment response")
		}
		credential, createErr := b.provider.CreateCredential(user, session.Session, parsed)
		if createErr != nil {
			return Result{}, apperror.NewCeremonyFailed("enrollment rejected")
		}

		encoded, encodeErr := json.Marshal(credential)
		if encodeErr != nil {
			return Result{}, fmt.Errorf("encoding credential: %w", encodeErr)
		}
		handle := base64.RawURLEncoding.EncodeToString(credential.ID)
		if saveErr := b.handles.SaveCredential(ctx, handle, encoded); saveErr != nil {
			return Result{}, apperror.NewStorageFailure(saveErr)
		}

		// Creating the credential required a live user-verification gesture,
		// so enrollment doubles as a successful authentication.
		b.logger.Info("platform credential enrolled", "handle", handle)
		return Result{Enrolled: true}, nil

	case CeremonyVerify:
		parsed, parseErr := b.parser.ParseCredentialRequestResponseBytes(req.Response)
		if parseErr != nil {
			return Result{}, apperror.NewCeremonyFailed("malformed assertion response")
		}
		if _, loginErr := b.provider.ValidateLogin(user, session.Session, parsed); loginErr != nil {
			return Result{}, apperror.NewCeremonyFailed("assertion rejected")
		}
		b.logger.Info("platform credential verified")
		return Result{}, nil

	default:
		return Result{}, apperror.NewCeremonyFailed("unknown ceremony kind")
	}
}

// failCeremony handles a client-relayed platform error: it discards the
// pending session, erases the handle when the error category invalidates
// it, and returns the normalized failure.
func (b *Bridge) failCeremony(ctx context.Context, req FinishRequest) error {
	if req.SessionID != "" {
		// Best effort; an already-expired session is fine.
		_, _ = b.sessions.Take(ctx, req.SessionID)
	}

	if req.Error.invalidatesHandle() {
		if err := b.handles.EraseCredential(ctx); err != nil {
			return apperror.NewStorageFailure(err)
		}
		b.logger.Warn("platform credential erased", "cause", req.Error.Name)
	}

	b.logger.Info("ceremony failed", "name", req.Error.Name)
	return apperror.NewCeremonyFailed(req.Error.Name)
}

// loadUser assembles the webauthn user for this deployment profile,
// attaching the stored credential when one exists so assertion checks can
// see its public key.
func (b *Bridge) loadUser(ctx context.Context) (*vaultUser, error) {
	id, err := b.handles.PlatformUserID(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}

	user := &vaultUser{id: []byte(id), name: "bionotes", displayName: b.cfg.RPDisplayName}

	raw, ok, err := b.handles.Credential(ctx)
	if err != nil {
		return nil, apperror.NewStorageFailure(err)
	}
	if ok {
		var credential webauthn.Credential
		if err := json.Unmarshal(raw, &credential); err != nil {
			return nil, fmt.Errorf("decoding stored credential: %w", err)
		}
		user.credentials = []webauthn.Credential{credential}
	}
	return user, nil
}

// vaultUser implements webauthn.User for the deployment profile. The
// authenticator scopes its credential to this identity, not to individual
// application accounts.
type vaultUser struct {
	id          []byte
	name        string
	displayName string
	credentials []webauthn.Credential
}

func (u *vaultUser) WebAuthnID() []byte {
	return u.id
}

func (u *vaultUser) WebAuthnName() string {
	return u.name
}

func (u *vaultUser) WebAuthnDisplayName() string {
	return u.displayName
}

func (u *vaultUser) WebAuthnIcon() string {
	return ""
}

func (u *vaultUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}
