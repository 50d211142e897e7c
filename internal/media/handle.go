// Package media tracks the live playback surfaces of a review session: one
// handle per video or offset audio source, joined to the single playhead by
// the registry.
package media

import (
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes playback surface types.
type Kind string

const (
	// KindVideo is an in-page or detached video element.
	KindVideo Kind = "video"
	// KindAudio is an external audio source aligned by its own epoch start.
	KindAudio Kind = "audio"
)

// State is the reported playback state of a handle.
type State struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Playing     bool    `json:"isPlaying"`
	Muted       bool    `json:"muted"`
}

// Handle is the live playback handle for one media source. Identity is the
// handle itself, not the source name: two sources with identical filenames
// stay distinct because each gets its own handle with its own id.
type Handle struct {
	mu         sync.Mutex
	id         string
	name       string
	kind       Kind
	startEpoch int64 // unix seconds parsed from the filename prefix; 0 if absent
	state      State
}

// NewHandle creates a handle for a named source. Handles start muted: the
// autoplay-policy-safe default for a surface the user has not interacted with.
func NewHandle(name string, kind Kind, startEpoch int64) *Handle {
	return &Handle{
		id:         uuid.NewString(),
		name:       name,
		kind:       kind,
		startEpoch: startEpoch,
		state:      State{Muted: true},
	}
}

// ID returns the stable identity key of this handle.
func (h *Handle) ID() string { return h.id }

// Name returns the source name the handle was created for.
func (h *Handle) Name() string { return h.name }

// Kind returns the surface type.
func (h *Handle) Kind() Kind { return h.kind }

// StartEpoch returns the unix-seconds anchor of the source, 0 if unknown.
func (h *Handle) StartEpoch() int64 { return h.startEpoch }

// State returns a copy of the current reported state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Update replaces the reported playback state, preserving the mute flag,
// which only changes through SetMuted.
func (h *Handle) Update(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s.Muted = h.state.Muted
	h.state = s
}

// SetTime hard-sets the handle's position, used by sync corrections.
func (h *Handle) SetTime(t float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.CurrentTime = t
}

// SetPlaying sets the play state. It reports whether the state changed, so
// callers can skip redundant play()/pause() fan-out.
func (h *Handle) SetPlaying(playing bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Playing == playing {
		return false
	}
	h.state.Playing = playing
	return true
}

// SetMuted sets the mute flag.
func (h *Handle) SetMuted(muted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Muted = muted
}

// Info is the JSON-friendly description of a handle.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	StartEpoch int64  `json:"startEpoch,omitempty"`
	State      State  `json:"state"`
}

// Info returns a JSON-friendly snapshot of the handle.
func (h *Handle) Info() Info {
	return Info{
		ID:         h.id,
		Name:       h.name,
		Kind:       h.kind,
		StartEpoch: h.startEpoch,
		State:      h.State(),
	}
}
