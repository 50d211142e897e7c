// Package session composes a review session: the classified folder, the
// decoded sensor series, the media handles, the playhead and the sync engine,
// behind one lifecycle. A session is loaded from a folder, configured on the
// setup step (one chart style per graph source), then started; review
// operations are rejected until the step they need has happened.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/fieldlab/session.review/internal/config"
	"github.com/fieldlab/session.review/internal/datawindow"
	"github.com/fieldlab/session.review/internal/fileset"
	"github.com/fieldlab/session.review/internal/media"
	"github.com/fieldlab/session.review/internal/monitoring"
	"github.com/fieldlab/session.review/internal/obslog"
	"github.com/fieldlab/session.review/internal/playhead"
	"github.com/fieldlab/session.review/internal/sensor"
	"github.com/fieldlab/session.review/internal/syncengine"
	"github.com/fieldlab/session.review/internal/timeutil"
)

var (
	// ErrNotLoaded rejects operations issued before a folder is loaded,
	// which happens after a page reload drops the in-memory state.
	ErrNotLoaded = errors.New("session: no folder loaded")
	// ErrNotStarted rejects review operations issued during the setup step.
	ErrNotStarted = errors.New("session: review not started")
)

// SeriesInfo describes one sensor graph source for the setup and review
// surfaces. Err carries the per-series decode failure, local to this graph.
type SeriesInfo struct {
	File      fileset.File      `json:"file"`
	GraphKind fileset.GraphKind `json:"graphKind"`
	Columns   []string          `json:"columns,omitempty"`
	Rows      int               `json:"rows"`
	Err       string            `json:"error,omitempty"`
}

// Session owns all state of one review session.
type Session struct {
	cfg   *config.TuningConfig
	clock timeutil.Clock

	ph     *playhead.Playhead
	reg    *media.Registry
	engine *syncengine.Engine
	log    *obslog.Log

	mu        sync.Mutex
	set       *fileset.Set
	series    map[string]*sensor.Series
	seriesErr map[string]string
	loaded    bool
	started   bool
}

// New creates an empty session. The engine's heartbeat starts with the
// session and runs until Close.
func New(cfg *config.TuningConfig, clock timeutil.Clock) *Session {
	ph := playhead.New()
	reg := media.NewRegistry(ph)
	return &Session{
		cfg:    cfg,
		clock:  clock,
		ph:     ph,
		reg:    reg,
		engine: syncengine.New(ph, reg, cfg, clock),
		log:    obslog.NewLog(clock),
	}
}

// Start launches the sync heartbeat.
func (s *Session) Start() { s.engine.Start() }

// Close stops the sync heartbeat.
func (s *Session) Close() { s.engine.Close() }

// Playhead returns the session playhead.
func (s *Session) Playhead() *playhead.Playhead { return s.ph }

// Registry returns the media registry.
func (s *Session) Registry() *media.Registry { return s.reg }

// Engine returns the sync engine.
func (s *Session) Engine() *syncengine.Engine { return s.engine }

// Log returns the observation ledger.
func (s *Session) Log() *obslog.Log { return s.log }

// HalfWindow returns the configured data-window half-width in seconds.
func (s *Session) HalfWindow() float64 { return s.cfg.GetHalfWindowSeconds() }

// LoadFolder scans a session folder, decodes its sensor logs and registers a
// handle per recording. Loading replaces any previously loaded folder: old
// handles unregister, the playhead rewinds, the log empties and the session
// drops back to the setup step. Observation definitions survive a reload so
// the reviewer's vocabulary is not lost with the folder.
func (s *Session) LoadFolder(fsys fs.FS, root string) error {
	set, err := fileset.Scan(fsys, root)
	if err != nil {
		return err
	}

	series := make(map[string]*sensor.Series)
	seriesErr := make(map[string]string)
	videoEpoch := set.VideoEpoch()
	for _, f := range set.Sensors() {
		sr, err := decodeSeries(fsys, f, videoEpoch)
		if err != nil {
			// A broken series blocks only its own graph.
			monitoring.Logf("session: %v", err)
			seriesErr[f.Path] = err.Error()
			continue
		}
		series[f.Path] = sr
	}

	s.mu.Lock()
	s.set = set
	s.series = series
	s.seriesErr = seriesErr
	s.loaded = true
	s.started = false
	s.mu.Unlock()

	for _, h := range s.reg.Handles() {
		s.reg.Unregister(h.ID())
	}
	for _, f := range set.Videos() {
		s.reg.Register(media.NewHandle(f.Name, media.KindVideo, f.Epoch))
	}
	for _, f := range set.Audio() {
		s.reg.Register(media.NewHandle(f.Name, media.KindAudio, f.Epoch))
	}

	s.engine.SetVideoEpoch(videoEpoch)
	s.log.Clear()
	s.ph.SetPlaying(false)
	s.ph.SetTime(0)
	return nil
}

func decodeSeries(fsys fs.FS, f fileset.File, videoEpoch int64) (*sensor.Series, error) {
	rc, err := fsys.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open sensor %s: %w", f.Path, err)
	}
	defer rc.Close()

	sr, err := sensor.Decode(f.Name, rc)
	if err != nil {
		return nil, err
	}
	// A sensor log with its own epoch prefix anchors itself; the rest hang
	// off the companion video's anchor.
	if epoch, ok := sensor.ParseEpochPrefix(f.Name); ok {
		sr.TimeOffset = epoch
	} else {
		sr.TimeOffset = videoEpoch
	}
	return sr, nil
}

// Loaded reports whether a folder has been loaded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Started reports whether the review step has begun.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Files lists the classified folder contents.
func (s *Session) Files() ([]fileset.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return append([]fileset.File(nil), s.set.Files...), nil
}

// SetGraphKind records the chart style for one graph source during setup.
func (s *Session) SetGraphKind(path string, kind fileset.GraphKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	return s.set.SetGraphKind(path, kind)
}

// StartReview moves the session from setup to review. Every selectable graph
// source must have a chart style first.
func (s *Session) StartReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if !s.set.AllGraphKindsChosen() {
		var pending []string
		for _, f := range s.set.GraphSources() {
			pending = append(pending, f.Path)
		}
		return fmt.Errorf("choose a graph kind for every sensor source before starting (%d sources: %v)", len(pending), pending)
	}
	s.started = true
	return nil
}

// GraphSources describes the selectable sensor sources with their decode
// state and chosen chart style.
func (s *Session) GraphSources() ([]SeriesInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}

	out := make([]SeriesInfo, 0, len(s.set.GraphSources()))
	for _, f := range s.set.GraphSources() {
		info := SeriesInfo{File: f, GraphKind: s.set.GraphKindFor(f.Path)}
		if sr, ok := s.series[f.Path]; ok {
			info.Columns = sr.Columns
			info.Rows = len(sr.Rows)
		} else {
			info.Err = s.seriesErr[f.Path]
		}
		out = append(out, info)
	}
	return out, nil
}

// Series returns the decoded series for a sensor path.
func (s *Session) Series(path string) (*sensor.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if msg, broken := s.seriesErr[path]; broken {
		return nil, fmt.Errorf("sensor %s: %s", path, msg)
	}
	sr, ok := s.series[path]
	if !ok {
		return nil, fmt.Errorf("unknown sensor source %q", path)
	}
	return sr, nil
}

// GraphKindFor returns the chart style chosen for a sensor path.
func (s *Session) GraphKindFor(path string) (fileset.GraphKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return "", ErrNotLoaded
	}
	return s.set.GraphKindFor(path), nil
}

// Window slices the named series around the current playhead. Review must
// have started: during setup the graphs have no meaningful anchor yet.
func (s *Session) Window(path string) (datawindow.Window, error) {
	if !s.Started() {
		if !s.Loaded() {
			return datawindow.Window{}, ErrNotLoaded
		}
		return datawindow.Window{}, ErrNotStarted
	}
	sr, err := s.Series(path)
	if err != nil {
		return datawindow.Window{}, err
	}
	return datawindow.Slice(sr, s.ph.Snapshot().CurrentTime, s.HalfWindow()), nil
}

// Alignment places an audio handle against the playhead, using the session's
// video epoch as the reference anchor.
func (s *Session) Alignment(handleID string) (media.Alignment, error) {
	h, ok := s.reg.Get(handleID)
	if !ok {
		return media.Alignment{}, fmt.Errorf("unknown handle %q", handleID)
	}
	if h.Kind() != media.KindAudio {
		return media.Alignment{}, fmt.Errorf("handle %q is not an audio source", handleID)
	}

	s.mu.Lock()
	var videoEpoch int64
	if s.set != nil {
		videoEpoch = s.set.VideoEpoch()
	}
	s.mu.Unlock()

	return media.Align(h.StartEpoch(), videoEpoch, s.ph.Snapshot().CurrentTime), nil
}
