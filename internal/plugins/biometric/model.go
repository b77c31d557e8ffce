// Package biometric implements the platform authenticator bridge: probing
// biometric capability and running the public-key credential enroll/verify
// ceremonies against the device's built-in authenticator.
//
// The biometric material itself never leaves the platform. The server only
// ever sees success/failure plus an opaque credential handle, which is
// cached per deployment (not per user) on the key-value store -- the same
// one-handle-per-profile behavior the lock screen has always had.
//
// Ceremonies are two-phase: Begin produces the platform request options and
// a short-lived session, the browser performs the ceremony, Finish validates
// the response against the session. The in-process composition of both
// phases is exposed as Authenticate for callers that own the round-trip.
package biometric

import "encoding/json"

// BiometryKind describes the verifier the platform reports. The web platform
// cannot distinguish face from fingerprint reliably, so kinds are coarse.
type BiometryKind string

const (
	KindFingerprint BiometryKind = "Fingerprint"
	KindBiometrics  BiometryKind = "Biometrics"
)

// Availability is the result of a capability probe. Probing never fails
// loudly: errors degrade to Available=false with Err recorded.
type Availability struct {
	Available bool
	Kind      BiometryKind
	Err       error
}

// CeremonyKind tags which ceremony a session belongs to.
type CeremonyKind string

const (
	// CeremonyEnroll creates a new platform credential. Completing it counts
	// as a successful authentication: the user proved presence and
	// verification during creation.
	CeremonyEnroll CeremonyKind = "enroll"

	// CeremonyVerify asserts against the cached credential handle.
	CeremonyVerify CeremonyKind = "verify"
)

// Ceremony is a begun ceremony awaiting its browser round-trip.
type Ceremony struct {
	// SessionID identifies the pending ceremony on the finish call.
	SessionID string `json:"sessionId"`

	// Kind tells the client whether to call credentials.create or
	// credentials.get.
	Kind CeremonyKind `json:"kind"`

	// Options is the JSON-encoded publicKey request for the platform.
	Options json.RawMessage `json:"options"`

	// Prompt is the human-readable reason shown alongside the platform UI.
	Prompt string `json:"prompt"`
}

// Result is the normalized outcome of a completed authentication, shared
// with the simulated authenticator.
type Result struct {
	// Enrolled is true when the ceremony created a new credential rather
	// than verifying an existing one.
	Enrolled bool `json:"enrolled"`

	// Simulated is true when no real ceremony ran. Callers must surface
	// this to the user; it marks the degraded demonstration mode.
	Simulated bool `json:"simulated"`
}

// CeremonyError is the platform-side failure relayed by the client. Name
// carries the platform's error category; two categories mean the cached
// handle is permanently unusable and must be erased so the next attempt
// re-enrolls instead of retrying a dead handle forever.
type CeremonyError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *CeremonyError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// invalidatesHandle reports whether this failure category means the stored
// credential handle will never work again (revoked, platform reset, or
// credential state mismatch).
func (e *CeremonyError) invalidatesHandle() bool {
	return e.Name == "NotAllowedError" || e.Name == "InvalidStateError"
}

// --- Request DTOs ---

// AvailabilityReport is the capability signal posted by the client after it
// probes the platform. The device-type heuristic is the client's concern;
// the bridge consumes it as a boolean plus an optional kind.
type AvailabilityReport struct {
	Available bool   `json:"available"`
	Kind      string `json:"kind,omitempty"`
}

// FinishRequest completes a begun ceremony. Exactly one of Response or
// Error is expected.
type FinishRequest struct {
	SessionID string          `json:"sessionId"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     *CeremonyError  `json:"error,omitempty"`
}
