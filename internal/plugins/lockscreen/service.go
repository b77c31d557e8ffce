package lockscreen

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bionotes/bionotes/internal/apperror"
	"github.com/bionotes/bionotes/internal/plugins/biometric"
	"github.com/bionotes/bionotes/internal/plugins/credentials"
	"github.com/bionotes/bionotes/internal/plugins/session"
)

// unlockPrompt is shown alongside the platform's biometric UI.
const unlockPrompt = "Unlock your notes"

// fallbackGuidance is offered after repeated failures so the user is not
// stuck retrying one method.
const fallbackGuidance = "Having trouble? You can also unlock with your password."

// simulatedAuthenticator is the fallback used when no platform
// authenticator can run. Satisfied by biometric.SimulatedAuthenticator.
type simulatedAuthenticator interface {
	Authenticate(ctx context.Context) (biometric.Result, error)
}

// Service orchestrates unlock attempts. All authentication paths converge
// here so attempt accounting and the session unlock stay in one place.
type Service struct {
	credentials credentials.Service
	bridge      *biometric.Bridge
	simulated   simulatedAuthenticator
	sessions    *session.Controller
	logger      *slog.Logger

	mu       sync.Mutex
	attempts int
}

// NewService creates the orchestrator.
func NewService(creds credentials.Service, bridge *biometric.Bridge, simulated simulatedAuthenticator, sessions *session.Controller, logger *slog.Logger) *Service {
	return &Service{
		credentials: creds,
		bridge:      bridge,
		simulated:   simulated,
		sessions:    sessions,
		logger:      logger,
	}
}

// Attempt runs one unlock attempt. Password attempts resolve in-process.
// Biometric attempts resolve in-process only when the platform is
// unavailable (simulated fallback); otherwise the outcome carries a
// ceremony the caller must complete with FinishBiometric.
func (s *Service) Attempt(ctx context.Context, input AttemptInput) (Outcome, error) {
	switch input.Mode {
	case ModePassword:
		return s.attemptPassword(ctx, input)
	case ModeBiometric:
		return s.attemptBiometric(ctx)
	default:
		return Outcome{}, apperror.NewBadRequest("unknown authentication mode")
	}
}

func (s *Service) attemptPassword(ctx context.Context, input AttemptInput) (Outcome, error) {
	var err error
	if input.Register {
		err = s.credentials.Register(ctx, input.Username, input.Password)
	} else {
		err = s.credentials.Authenticate(ctx, input.Username, input.Password)
	}
	if err != nil {
		s.recordFailure("password")
		return Outcome{}, err
	}

	s.succeed("password")
	return Outcome{Unlocked: true, Username: input.Username}, nil
}

func (s *Service) attemptBiometric(ctx context.Context) (Outcome, error) {
	// Biometric unlock is for returning users: the credential handle proves
	// a device identity, not an application account, so a current-user
	// marker must already exist.
	username, ok, err := s.credentials.CurrentUser(ctx)
	if err != nil {
		s.recordFailure("biometric")
		return Outcome{}, err
	}
	if !ok {
		s.recordFailure("biometric")
		return Outcome{}, apperror.NewUserNotFound()
	}

	availability := s.bridge.CheckAvailability(ctx)
	if !availability.Available {
		// Degraded demonstration mode: wait out the fake prompt, then
		// unlock. The Simulated flag must reach the user.
		result, simErr := s.simulated.Authenticate(ctx)
		if simErr != nil {
			s.recordFailure("simulated")
			return Outcome{}, simErr
		}
		s.succeed("simulated")
		return Outcome{Unlocked: true, Username: username, Simulated: result.Simulated}, nil
	}

	ceremony, err := s.bridge.Begin(ctx, unlockPrompt)
	if err != nil {
		s.recordFailure("biometric")
		return Outcome{}, err
	}
	return Outcome{Ceremony: ceremony}, nil
}

// FinishBiometric completes a platform ceremony begun by Attempt. Success
// unlocks the session; enrollment counts as authentication.
func (s *Service) FinishBiometric(ctx context.Context, req biometric.FinishRequest) (Outcome, error) {
	username, ok, err := s.credentials.CurrentUser(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{}, apperror.NewUserNotFound()
	}

	result, err := s.bridge.Finish(ctx, req)
	if err != nil {
		s.recordFailure("biometric")
		return Outcome{}, err
	}

	s.succeed("biometric")
	return Outcome{Unlocked: true, Username: username, Enrolled: result.Enrolled}, nil
}

// Status returns the attempt counter and the guidance it implies.
func (s *Service) Status() Status {
	s.mu.Lock()
	attempts := s.attempts
	s.mu.Unlock()

	status := Status{Attempts: attempts}
	if attempts > 1 {
		status.Guidance = fallbackGuidance
	}
	return status
}

// Attempts returns the consecutive failed attempt count.
func (s *Service) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Service) recordFailure(method string) {
	s.mu.Lock()
	s.attempts++
	attempts := s.attempts
	s.mu.Unlock()
	s.logger.Info("unlock attempt failed", "method", method, "attempts", attempts)
}

// succeed resets the attempt counter and unlocks the session.
func (s *Service) succeed(method string) {
	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()

	s.sessions.Unlock()
	s.logger.Info("session unlocked", "method", method)
}
