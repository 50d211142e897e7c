// Package playhead owns the single logical playhead all media and graphs
// synchronize to: the authoritative current time and play state of the
// review session.
//
// The playhead is a value holder, not a scheduler. It never advances on its
// own; media surfaces report progress into it and everything else converges
// toward it. All mutation funnels through the public operations so observers
// see a consistent ordering.
package playhead

import (
	"sync"

	"github.com/fieldlab/session.review/internal/units"
)

// Snapshot is an immutable copy of the playhead state.
type Snapshot struct {
	CurrentTime float64 `json:"currentTime"`
	Playing     bool    `json:"isPlaying"`
}

// Listener receives a snapshot after every playhead mutation. Listeners are
// invoked synchronously, in subscription order, outside the playhead lock.
type Listener func(Snapshot)

// Playhead holds the current time and play state of the session timeline.
type Playhead struct {
	mu          sync.Mutex
	currentTime float64
	playing     bool
	listeners   []Listener
}

// New returns a stopped playhead at time zero.
func New() *Playhead {
	return &Playhead{}
}

// Subscribe registers a listener for playhead changes. Subscription is not
// revocable; the playhead lives for the whole session.
func (p *Playhead) Subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// SetTime moves the playhead to t seconds. Negative values clamp to zero.
// There is deliberately no upper clamp against the known media duration, so
// users can scrub past the end of the shortest recording.
func (p *Playhead) SetTime(t float64) {
	if t < 0 {
		t = 0
	}
	p.mu.Lock()
	p.currentTime = t
	snap := p.snapshotLocked()
	listeners := p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
}

// TogglePlay flips the play state and returns the new value.
func (p *Playhead) TogglePlay() bool {
	p.mu.Lock()
	p.playing = !p.playing
	playing := p.playing
	snap := p.snapshotLocked()
	listeners := p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
	return playing
}

// SetPlaying forces the play state, used when a detached window reports its
// own play/pause transition. No notification fires if the state is unchanged,
// which avoids redundant play()/pause() fan-out.
func (p *Playhead) SetPlaying(playing bool) {
	p.mu.Lock()
	if p.playing == playing {
		p.mu.Unlock()
		return
	}
	p.playing = playing
	snap := p.snapshotLocked()
	listeners := p.listenersLocked()
	p.mu.Unlock()

	notify(listeners, snap)
}

// Skip moves the playhead by delta seconds relative to the current time.
// The result clamps at zero like SetTime.
func (p *Playhead) Skip(delta float64) {
	p.mu.Lock()
	t := p.currentTime + delta
	p.mu.Unlock()
	p.SetTime(t)
}

// GoToTime jumps to an absolute hours/minutes/seconds position.
func (p *Playhead) GoToTime(h, m, s int) {
	p.SetTime(units.ClockSeconds(h, m, s))
}

// Snapshot returns a copy of the current playhead state.
func (p *Playhead) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Playhead) snapshotLocked() Snapshot {
	return Snapshot{CurrentTime: p.currentTime, Playing: p.playing}
}

func (p *Playhead) listenersLocked() []Listener {
	return append([]Listener(nil), p.listeners...)
}

func notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
