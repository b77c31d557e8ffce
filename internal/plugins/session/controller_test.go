package session

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestController_StartsLocked(t *testing.T) {
	c := NewController(time.Minute, testLogger())
	if c.State() != StateLocked {
		t.Fatalf("expected initial state locked, got %q", c.State())
	}
}

func TestController_UnlockAndLock(t *testing.T) {
	c := NewController(time.Minute, testLogger())

	c.Unlock()
	if c.State() != StateUnlocked {
		t.Fatalf("expected unlocked, got %q", c.State())
	}

	c.Lock()
	if c.State() != StateLocked {
		t.Fatalf("expected locked, got %q", c.State())
	}
}

func TestController_InactivityLocks(t *testing.T) {
	c := NewController(20*time.Millisecond, testLogger())
	c.Unlock()

	waitForState(t, c, StateLocked, time.Second)
}

func TestController_ActivityPushesDeadline(t *testing.T) {
	c := NewController(60*time.Millisecond, testLogger())
	c.Unlock()

	// Keep signaling activity past the original deadline. The session must
	// stay unlocked the whole time.
	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		if c.State() != StateUnlocked {
			t.Fatalf("locked despite activity after %d intervals", i)
		}
		c.Activity()
	}

	// Now go idle and let the timeout fire.
	waitForState(t, c, StateLocked, time.Second)
}

func TestController_ActivityWhileLockedIsIgnored(t *testing.T) {
	c := NewController(time.Minute, testLogger())

	c.Activity()
	if c.State() != StateLocked {
		t.Fatal("activity must never unlock a locked session")
	}
	if c.timer != nil {
		t.Fatal("activity while locked must not arm the timer")
	}
}

func TestController_VisibilityHiddenLocksImmediately(t *testing.T) {
	c := NewController(time.Hour, testLogger())
	c.Unlock()

	c.VisibilityHidden()
	if c.State() != StateLocked {
		t.Fatal("expected immediate lock on visibility loss")
	}
}

func TestController_VisibilityHiddenWhileLockedIsNoop(t *testing.T) {
	c := NewController(time.Hour, testLogger())

	ch, cancel := c.Subscribe()
	defer cancel()

	c.VisibilityHidden()
	select {
	case state := <-ch:
		t.Fatalf("unexpected notification %q for a no-op transition", state)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestController_SubscribersSeeTransitions(t *testing.T) {
	c := NewController(time.Hour, testLogger())

	ch, cancel := c.Subscribe()
	defer cancel()

	c.Unlock()
	assertNotified(t, ch, StateUnlocked)

	c.Lock()
	assertNotified(t, ch, StateLocked)
}

func TestController_RepeatedUnlockNotifiesOnce(t *testing.T) {
	c := NewController(time.Hour, testLogger())

	ch, cancel := c.Subscribe()
	defer cancel()

	c.Unlock()
	assertNotified(t, ch, StateUnlocked)

	// Re-unlocking only re-arms the timer; observers hear nothing.
	c.Unlock()
	select {
	case state := <-ch:
		t.Fatalf("unexpected notification %q", state)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestController_CancelClosesChannel(t *testing.T) {
	c := NewController(time.Hour, testLogger())

	ch, cancel := c.Subscribe()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}

	// Transitions after cancel must not panic on the closed channel.
	c.Unlock()
}

func waitForState(t *testing.T, c *Controller, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never became %q, still %q", want, c.State())
}

func assertNotified(t *testing.T, ch <-chan State, want State) {
	t.Helper()
	select {
	case state := <-ch:
		if state != want {
			t.Fatalf("expected notification %q, got %q", want, state)
		}
	case <-time.After(time.Second):
		t.Fatalf("no notification of %q", want)
	}
}
