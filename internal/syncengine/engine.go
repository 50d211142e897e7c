// Package syncengine drives every playback surface toward the session
// playhead. Local handles are corrected in place; detached windows are
// replicated over fire-and-forget message links with a dead-band, a
// re-entrancy guard and a periodic heartbeat, so the whole set converges
// despite message loss, duplication and window-creation races.
package syncengine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlab/session.review/internal/config"
	"github.com/fieldlab/session.review/internal/media"
	"github.com/fieldlab/session.review/internal/monitoring"
	"github.com/fieldlab/session.review/internal/playhead"
	"github.com/fieldlab/session.review/internal/timeutil"
)

// Link is the outbound half of a detached-window connection. Send must not
// retry: delivery is best-effort and a failed send drops the link.
type Link interface {
	Send(Message) error
}

// LinkKind distinguishes what a detached window hosts.
type LinkKind string

const (
	// LinkVideo is a popup hosting a single video surface.
	LinkVideo LinkKind = "video"
	// LinkGraph is a popup hosting a sensor graph.
	LinkGraph LinkKind = "graph"
)

// LinkInfo is the JSON-friendly description of an attached link.
type LinkInfo struct {
	ID                string   `json:"id"`
	Kind              LinkKind `json:"kind"`
	Index             int      `json:"index"`
	Ready             bool     `json:"ready"`
	File              string   `json:"file,omitempty"`
	LastKnownPlayhead float64  `json:"lastKnownPlayhead"`
}

type link struct {
	id    string
	kind  LinkKind
	out   Link
	index int

	// ready flips when the window announces itself. Event-driven pushes
	// skip unready links; heartbeats are sent speculatively to all.
	ready bool
	file  string

	// lastSent is the newest state this link was told about, used to
	// suppress echoes and redundant pushes within the dead-band.
	lastSent playhead.Snapshot
	hasSent  bool
}

// Engine replicates the playhead across local handles and detached windows.
type Engine struct {
	clock     timeutil.Clock
	deadBand  float64
	heartbeat time.Duration
	throttle  time.Duration

	ph    *playhead.Playhead
	reg   *media.Registry
	guard *Guard

	mu         sync.Mutex
	links      map[string]*link
	nextIndex  int
	videoEpoch int64
	muted      bool
	lastSend   time.Time
	pending    bool
	flushTimer timeutil.Timer
	ticker     timeutil.Ticker

	closeOnce sync.Once
	done      chan struct{}
}

// New creates an engine bound to the playhead and registry. The engine
// subscribes to playhead changes immediately; call Start to begin the
// heartbeat and Close to stop it.
func New(ph *playhead.Playhead, reg *media.Registry, cfg *config.TuningConfig, clock timeutil.Clock) *Engine {
	e := &Engine{
		clock:     clock,
		deadBand:  cfg.GetDeadBandSeconds(),
		heartbeat: cfg.GetHeartbeatInterval(),
		throttle:  cfg.GetUpdateThrottle(),
		ph:        ph,
		reg:       reg,
		guard:     NewGuard(clock, cfg.GetSyncGuard()),
		links:     make(map[string]*link),
		muted:     true,
		done:      make(chan struct{}),
	}
	ph.Subscribe(func(snap playhead.Snapshot) {
		e.converge(snap)
		e.broadcast(snap)
	})
	return e
}

// Start launches the heartbeat loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.ticker == nil {
		e.ticker = e.clock.NewTicker(e.heartbeat)
		go e.run()
	}
	e.mu.Unlock()
}

// Close stops the heartbeat. Attached links stay usable for direct pushes.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.mu.Lock()
		if e.ticker != nil {
			e.ticker.Stop()
		}
		e.mu.Unlock()
	})
}

func (e *Engine) run() {
	e.mu.Lock()
	tick := e.ticker.C()
	e.mu.Unlock()
	for {
		select {
		case <-e.done:
			return
		case <-tick:
			e.heartbeatTick()
		}
	}
}

// heartbeatTick resends the current state to every link, ready or not.
// Unready windows that missed their first push because of a creation race
// catch up here; windows that are not listening yet safely ignore it.
func (e *Engine) heartbeatTick() {
	snap := e.ph.Snapshot()
	e.mu.Lock()
	e.broadcastLocked(snap, true)
	e.mu.Unlock()
}

// Attach registers a detached-window link and returns its id. The link is
// not trusted for sync until the window announces readiness.
func (e *Engine) Attach(kind LinkKind, out Link) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ln := &link{
		id:    uuid.NewString(),
		kind:  kind,
		out:   out,
		index: e.nextIndex,
	}
	e.nextIndex++
	e.links[ln.id] = ln
	return ln.id
}

// Detach removes a link. Safe to call for links already dropped on a failed
// send.
func (e *Engine) Detach(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.links, id)
}

// Links describes the attached links, for the session status endpoint.
func (e *Engine) Links() []LinkInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LinkInfo, 0, len(e.links))
	for _, ln := range e.links {
		out = append(out, LinkInfo{
			ID:                ln.id,
			Kind:              ln.kind,
			Index:             ln.index,
			Ready:             ln.ready,
			File:              ln.file,
			LastKnownPlayhead: ln.lastSent.CurrentTime,
		})
	}
	return out
}

// SetVideoEpoch records the session's video start epoch, forwarded to graph
// windows so they can anchor series offsets.
func (e *Engine) SetVideoEpoch(epoch int64) {
	e.mu.Lock()
	e.videoEpoch = epoch
	e.mu.Unlock()
}

// Muted reports the session-wide mute state.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMuted applies a mute state to every local handle and broadcasts it to
// every ready video window.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	for _, ln := range e.links {
		if ln.kind != LinkVideo || !ln.ready {
			continue
		}
		if err := ln.out.Send(ToggleMuteMessage(ln.index, muted)); err != nil {
			e.dropLocked(ln, err)
		}
	}
	e.mu.Unlock()

	for _, h := range e.reg.Handles() {
		h.SetMuted(muted)
	}
}

// SkipAll jumps the whole session by a relative number of seconds: an
// explicit skip message to every ready video window, then the playhead move,
// whose change notification carries the new absolute time everywhere else.
func (e *Engine) SkipAll(seconds float64) {
	e.mu.Lock()
	for _, ln := range e.links {
		if ln.kind != LinkVideo || !ln.ready {
			continue
		}
		if err := ln.out.Send(SkipAllMessage(ln.index, seconds)); err != nil {
			e.dropLocked(ln, err)
		}
	}
	e.mu.Unlock()

	e.ph.Skip(seconds)
}

// HandleInbound dispatches one message received from the given link.
func (e *Engine) HandleInbound(linkID string, data []byte) error {
	m, err := Decode(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	ln, ok := e.links[linkID]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown link %q", linkID)
	}

	switch m.Kind {
	case KindGraphWindowReady:
		e.markReady(ln, "")
		e.pushTo(ln)
	case KindSingleFileState:
		e.markReady(ln, m.File.Name)
		e.pushTo(ln)
	case KindRequestSync:
		e.markReady(ln, "")
		e.pushTo(ln)
	case KindTimeUpdate:
		e.applyRemote(ln, *m.Time, *m.IsPlaying)
	case KindPlayStateChange:
		e.applyRemote(ln, *m.Time, *m.IsPlaying)
	case KindSkipAll:
		e.ph.Skip(*m.Seconds)
	case KindToggleMute:
		e.SetMuted(*m.Muted)
	default:
		// sync and TIME_UPDATE only flow outward; a window echoing one
		// back is harmless and ignored.
		monitoring.Logf("sync: ignoring %s message from link %s", m.Kind, linkID)
	}
	return nil
}

// applyRemote folds a window's own position report into the playhead with
// the same dead-band and guard discipline the windows apply to our pushes.
func (e *Engine) applyRemote(ln *link, t float64, isPlaying bool) {
	if e.guard.Engaged() {
		// Echo of a correction still in flight.
		return
	}

	snap := e.ph.Snapshot()
	if math.Abs(snap.CurrentTime-t) > e.deadBand {
		e.guard.Engage()
		// Record the origin's position first so the resulting broadcast
		// does not push the same time straight back at it.
		e.mu.Lock()
		ln.lastSent = playhead.Snapshot{CurrentTime: t, Playing: isPlaying}
		ln.hasSent = true
		e.mu.Unlock()
		e.ph.SetTime(t)
	}
	e.ph.SetPlaying(isPlaying)
}

func (e *Engine) markReady(ln *link, file string) {
	e.mu.Lock()
	ln.ready = true
	if file != "" {
		ln.file = file
	}
	e.mu.Unlock()
}

// pushTo sends the current state to one link immediately, bypassing the
// throttle. Used for readiness announcements and explicit sync requests.
func (e *Engine) pushTo(ln *link) {
	snap := e.ph.Snapshot()
	e.mu.Lock()
	e.sendLocked(ln, snap)
	e.mu.Unlock()
}

// converge corrects every local handle toward the playhead. A handle within
// the dead-band is left alone; outside it, exactly one hard seek is issued.
// Play state only changes when it differs, so no redundant play/pause calls
// fan out.
func (e *Engine) converge(snap playhead.Snapshot) {
	for _, h := range e.reg.Handles() {
		if st := h.State(); math.Abs(st.CurrentTime-snap.CurrentTime) > e.deadBand {
			h.SetTime(snap.CurrentTime)
		}
		h.SetPlaying(snap.Playing)
	}
}

// broadcast pushes a playhead change to the detached windows, coalescing
// bursts: changes arriving faster than the throttle window collapse into one
// deferred flush carrying the newest state.
func (e *Engine) broadcast(snap playhead.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clock.Since(e.lastSend) < e.throttle {
		if !e.pending {
			e.pending = true
			if e.flushTimer == nil {
				e.flushTimer = e.clock.AfterFunc(e.throttle, e.flushPending)
			} else {
				e.flushTimer.Reset(e.throttle)
			}
		}
		return
	}
	e.broadcastLocked(snap, false)
}

func (e *Engine) flushPending() {
	snap := e.ph.Snapshot()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.pending {
		return
	}
	e.pending = false
	e.broadcastLocked(snap, false)
}

// broadcastLocked sends snap to the attached links. When force is false only
// ready links receive it, and links already within the dead-band of snap are
// skipped; heartbeats force a resend to everyone.
func (e *Engine) broadcastLocked(snap playhead.Snapshot, force bool) {
	e.lastSend = e.clock.Now()
	for _, ln := range e.links {
		if !force {
			if !ln.ready {
				continue
			}
			if ln.hasSent && ln.lastSent.Playing == snap.Playing &&
				math.Abs(ln.lastSent.CurrentTime-snap.CurrentTime) <= e.deadBand {
				continue
			}
		}
		e.sendLocked(ln, snap)
	}
}

func (e *Engine) sendLocked(ln *link, snap playhead.Snapshot) {
	var msg Message
	switch ln.kind {
	case LinkGraph:
		msg = GraphTimeUpdateMessage(snap.CurrentTime, e.videoEpoch)
	default:
		msg = SyncMessage(snap.CurrentTime, snap.Playing, e.muted)
	}
	if err := ln.out.Send(msg); err != nil {
		e.dropLocked(ln, err)
		return
	}
	ln.lastSent = snap
	ln.hasSent = true
}

// dropLocked removes a link after a failed send. Other links and the
// playhead are unaffected.
func (e *Engine) dropLocked(ln *link, err error) {
	monitoring.Logf("sync: dropping link %s (%s): %v", ln.id, ln.kind, err)
	delete(e.links, ln.id)
}
