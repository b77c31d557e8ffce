package biometric

import (
	"context"
	"log/slog"
	"time"
)

// SimulatedAuthenticator stands in when no platform authenticator is
// usable. It waits a fixed interval to mimic a prompt, then succeeds
// unconditionally. The Simulated flag on the result is the only thing
// separating it from a real check, so callers must surface it.
type SimulatedAuthenticator struct {
	delay  time.Duration
	logger *slog.Logger
}

// NewSimulatedAuthenticator creates the fallback authenticator.
func NewSimulatedAuthenticator(delay time.Duration, logger *slog.Logger) *SimulatedAuthenticator {
	return &SimulatedAuthenticator{delay: delay, logger: logger}
}

// Authenticate waits out the simulated prompt and succeeds. Cancelling the
// context aborts the wait.
func (s *SimulatedAuthenticator) Authenticate(ctx context.Context) (Result, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
	}

	s.logger.Info("simulated authentication granted")
	return Result{Simulated: true}, nil
}
