package media

import (
	"sort"
	"sync"

	"github.com/fieldlab/session.review/internal/playhead"
)

// Registry maps handle identity to live playback handles. Many handles fan
// out from one playhead; the registry is the join.
type Registry struct {
	mu      sync.Mutex
	ph      *playhead.Playhead
	handles map[string]*Handle
	order   []string // insertion order, for stable listing
}

// NewRegistry creates an empty registry feeding the given playhead.
func NewRegistry(ph *playhead.Playhead) *Registry {
	return &Registry{
		ph:      ph,
		handles: make(map[string]*Handle),
	}
}

// Register upserts a handle by identity. The first registration of a handle
// seeds its position into the playhead, so loading a video sets the initial
// playhead to that video's position.
func (r *Registry) Register(h *Handle) {
	r.mu.Lock()
	_, known := r.handles[h.ID()]
	r.handles[h.ID()] = h
	if !known {
		r.order = append(r.order, h.ID())
	}
	r.mu.Unlock()

	if !known {
		r.ph.SetTime(h.State().CurrentTime)
	}
}

// Unregister removes the handle with the given identity. MaxDuration
// recomputes on the next read; nothing is cached.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[id]; !ok {
		return
	}
	delete(r.handles, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the handle with the given identity.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Handles returns all registered handles in registration order.
func (r *Registry) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handles[id])
	}
	return out
}

// Infos returns JSON-friendly snapshots of all handles, sorted by name then
// id for deterministic API output.
func (r *Registry) Infos() []Info {
	handles := r.Handles()
	infos := make([]Info, 0, len(handles))
	for _, h := range handles {
		infos = append(infos, h.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// MaxDuration returns the maximum duration across all registered handles,
// 0 if none are registered. It is derived, never stored.
func (r *Registry) MaxDuration() float64 {
	var max float64
	for _, h := range r.Handles() {
		if d := h.State().Duration; d > max {
			max = d
		}
	}
	return max
}
