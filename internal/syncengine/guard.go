package syncengine

import (
	"sync"
	"time"

	"github.com/fieldlab/session.review/internal/timeutil"
)

// GuardState is the re-entrancy guard's position.
type GuardState int

const (
	// GuardIdle means inbound remote updates are trusted.
	GuardIdle GuardState = iota
	// GuardApplyingRemoteSync means a remote correction is being applied
	// and position echoes it generates must be ignored.
	GuardApplyingRemoteSync
)

// Guard is the small state machine that breaks sync feedback loops. Applying
// a remote correction triggers position events of its own; for a short hold
// after each application those events are echoes, not user intent, and must
// not be folded back into the playhead. The guard auto-resets to Idle when
// the hold expires, driven by the injected clock so expiry is testable.
type Guard struct {
	mu    sync.Mutex
	clock timeutil.Clock
	hold  time.Duration
	state GuardState
	timer timeutil.Timer
}

// NewGuard creates an idle guard with the given hold duration.
func NewGuard(clock timeutil.Clock, hold time.Duration) *Guard {
	return &Guard{clock: clock, hold: hold}
}

// Engage moves the guard to ApplyingRemoteSync and (re)arms the auto-reset.
// Engaging an already-engaged guard extends the hold.
func (g *Guard) Engage() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GuardApplyingRemoteSync
	if g.timer == nil {
		g.timer = g.clock.AfterFunc(g.hold, g.expire)
	} else {
		g.timer.Reset(g.hold)
	}
}

// Engaged reports whether inbound updates should currently be dropped.
func (g *Guard) Engaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == GuardApplyingRemoteSync
}

// State returns the current guard state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) expire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GuardIdle
}
