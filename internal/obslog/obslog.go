// Package obslog keeps the session's observation ledger: user-defined event
// types (Point or Duration) and the append-only log of their occurrences
// against the playhead timeline.
package obslog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlab/session.review/internal/timeutil"
)

// Type is the shape of a loggable event.
type Type string

const (
	// Point events are instant: one click, one closed entry.
	Point Type = "Point"
	// Duration events toggle: first click opens an entry, second closes it.
	Duration Type = "Duration"
)

// ParseType validates a type string from user input or an import row.
func ParseType(v string) (Type, error) {
	switch Type(strings.TrimSpace(v)) {
	case Point:
		return Point, nil
	case Duration:
		return Duration, nil
	}
	return "", fmt.Errorf("unknown observation type %q", v)
}

// Observation is a user-defined event type. Definitions live for the
// session and never auto-expire.
type Observation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        Type   `json:"type"`
}

// Entry is one logged occurrence. Name and type are snapshotted at creation
// time, so later edits to the definition never rewrite history. The
// observation id is a weak reference: deleting the definition leaves the
// entry in place, flagged as orphaned on read.
type Entry struct {
	ID              string    `json:"id"`
	ObservationID   string    `json:"observationId"`
	ObservationName string    `json:"observationName"`
	ObservationType Type      `json:"observationType"`
	Timestamp       time.Time `json:"timestamp"`
	VideoTimeStart  float64   `json:"videoTimeStart"`
	VideoTimeEnd    *float64  `json:"videoTimeEnd,omitempty"`
	Active          bool      `json:"isActive"`
	Orphaned        bool      `json:"orphaned,omitempty"`
}

// Log is the observation ledger. All mutation goes through its methods; the
// entries slice is kept sorted by VideoTimeStart ascending for display and
// export.
type Log struct {
	mu      sync.Mutex
	clock   timeutil.Clock
	defs    []Observation
	defByID map[string]int
	entries []*Entry
	// active maps observationId to the id of its single open Duration
	// entry. At most one open entry per observation can exist.
	active map[string]string
}

// NewLog creates an empty ledger stamping entries with the given clock.
func NewLog(clock timeutil.Clock) *Log {
	return &Log{
		clock:   clock,
		defByID: make(map[string]int),
		active:  make(map[string]string),
	}
}

// CreateObservation adds a definition. The name must be non-empty.
func (l *Log) CreateObservation(name, description string, t Type) (Observation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Observation{}, fmt.Errorf("observation name must not be empty")
	}
	if t != Point && t != Duration {
		return Observation{}, fmt.Errorf("unknown observation type %q", t)
	}

	obs := Observation{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Type:        t,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendDefLocked(obs)
	return obs, nil
}

// DeleteObservation removes a definition. Historical log entries referencing
// it are deliberately kept: they show up orphaned instead of vanishing.
func (l *Log) DeleteObservation(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.defByID[id]
	if !ok {
		return
	}
	l.defs = append(l.defs[:idx], l.defs[idx+1:]...)
	delete(l.defByID, id)
	for i := idx; i < len(l.defs); i++ {
		l.defByID[l.defs[i].ID] = i
	}
	// An open entry for a deleted definition could never be closed again;
	// clear the flag so the ledger cannot get stuck recording.
	if entryID, ok := l.active[id]; ok {
		if e := l.findEntryLocked(entryID); e != nil {
			e.Active = false
		}
		delete(l.active, id)
	}
}

// Observations lists the definitions in creation order.
func (l *Log) Observations() []Observation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Observation(nil), l.defs...)
}

// Toggle records a click on the observation button at the given playhead
// time. Point observations append one closed entry per click. Duration
// observations alternate: Idle opens an entry, Recording closes it.
func (l *Log) Toggle(observationID string, videoTime float64) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.defByID[observationID]
	if !ok {
		return Entry{}, fmt.Errorf("unknown observation %q", observationID)
	}
	def := l.defs[idx]

	if def.Type == Duration {
		if entryID, recording := l.active[observationID]; recording {
			e := l.findEntryLocked(entryID)
			if e == nil {
				// The open entry was deleted out from under the flag;
				// recover by clearing the flag and starting fresh.
				delete(l.active, observationID)
			} else {
				end := videoTime
				e.VideoTimeEnd = &end
				e.Active = false
				delete(l.active, observationID)
				return *e, nil
			}
		}
	}

	e := &Entry{
		ID:              uuid.NewString(),
		ObservationID:   def.ID,
		ObservationName: def.Name,
		ObservationType: def.Type,
		Timestamp:       l.clock.Now(),
		VideoTimeStart:  videoTime,
	}
	if def.Type == Duration {
		e.Active = true
		l.active[def.ID] = e.ID
	}
	l.insertEntryLocked(e)
	return *e, nil
}

// DeleteEntry removes one log entry. Deleting the open entry of a Duration
// observation clears its recording flag, so the observation is not stuck
// with no entry left to close.
func (l *Log) DeleteEntry(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.ID != id {
			continue
		}
		if e.Active {
			delete(l.active, e.ObservationID)
		}
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		return
	}
}

// Clear empties the log and every recording flag in one transition.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.active = make(map[string]string)
}

// Recording reports whether the observation currently has an open entry.
func (l *Log) Recording(observationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.active[observationID]
	return ok
}

// Entries returns the log sorted by start time, oldest first. Entries whose
// definition has been deleted are flagged orphaned.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		copied := *e
		if _, ok := l.defByID[e.ObservationID]; !ok {
			copied.Orphaned = true
		}
		out = append(out, copied)
	}
	return out
}

func (l *Log) appendDefLocked(obs Observation) {
	l.defByID[obs.ID] = len(l.defs)
	l.defs = append(l.defs, obs)
}

func (l *Log) findEntryLocked(id string) *Entry {
	for _, e := range l.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// insertEntryLocked places e at its sorted position, after any entries with
// the same start time so batches keep their relative order.
func (l *Log) insertEntryLocked(e *Entry) {
	i := sort.Search(len(l.entries), func(i int) bool {
		return l.entries[i].VideoTimeStart > e.VideoTimeStart
	})
	l.entries = append(l.entries, nil)
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = e
}

func (l *Log) resortLocked() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].VideoTimeStart < l.entries[j].VideoTimeStart
	})
}
