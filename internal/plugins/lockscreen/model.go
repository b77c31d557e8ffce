// Package lockscreen implements the authentication orchestrator behind the
// lock screen: it owns the choice between password and biometric unlocking,
// the simulated fallback when no platform authenticator exists, and the
// failed-attempt accounting that drives user guidance.
//
// The orchestrator composes the credentials service, the platform
// authenticator bridge, and the session controller. It is the only place
// that unlocks the session.
package lockscreen

import "github.com/bionotes/bionotes/internal/plugins/biometric"

// Mode selects how an unlock attempt authenticates.
type Mode string

const (
	ModePassword  Mode = "password"
	ModeBiometric Mode = "biometric"
)

// AttemptInput describes one unlock attempt.
type AttemptInput struct {
	Mode Mode `json:"mode"`

	// Register creates the account instead of checking an existing one.
	// Password mode only. A successful registration unlocks like a login.
	Register bool `json:"register,omitempty"`

	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Outcome is the result of an attempt. Exactly one of Unlocked or Ceremony
// is set: either the attempt resolved in-process, or a platform round-trip
// is required and the caller must finish the returned ceremony.
type Outcome struct {
	Unlocked bool `json:"unlocked"`

	// Username is the current user after a successful unlock.
	Username string `json:"username,omitempty"`

	// Simulated marks an unlock granted by the fallback authenticator
	// rather than a real biometric check.
	Simulated bool `json:"simulated,omitempty"`

	// Enrolled marks an unlock that created the platform credential.
	Enrolled bool `json:"enrolled,omitempty"`

	// Ceremony, when non-nil, must be completed via FinishBiometric.
	Ceremony *biometric.Ceremony `json:"ceremony,omitempty"`
}

// Status reports the attempt counter and the guidance derived from it.
type Status struct {
	Attempts int    `json:"attempts"`
	Guidance string `json:"guidance,omitempty"`
}
