// Package fileset classifies the session folder a user selects: which files
// are video sources, which are sensor logs, which are offset audio
// recordings, and which sensor logs are selectable graph sources.
package fileset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fieldlab/session.review/internal/sensor"
)

// Kind classifies a file in the session folder.
type Kind string

const (
	KindVideo  Kind = "video"  // .mp4
	KindSensor Kind = "sensor" // .csv
	KindAudio  Kind = "audio"  // .wav / .mp3
	KindOther  Kind = "other"
)

// GraphKind is the chart style chosen for a sensor source at setup.
type GraphKind string

const (
	GraphLine GraphKind = "line"
	GraphBar  GraphKind = "bar"
)

// File is one classified entry of the session folder.
type File struct {
	// Path is the file's path relative to the session root, slash-separated.
	Path string `json:"path"`
	// Name is the base name.
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// Epoch is the unix-seconds filename prefix of video and audio
	// recordings, 0 when the name carries none.
	Epoch int64 `json:"epoch,omitempty"`
}

// Set is the classified session folder plus the per-source graph choices
// made during setup.
type Set struct {
	Root       string
	Files      []File
	graphKinds map[string]GraphKind
}

// Scan walks a session folder and classifies every regular file.
func Scan(fsys fs.FS, root string) (*Set, error) {
	s := &Set{Root: root, graphKinds: make(map[string]GraphKind)}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		s.Files = append(s.Files, classify(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan session folder: %w", err)
	}
	sort.Slice(s.Files, func(i, j int) bool { return s.Files[i].Path < s.Files[j].Path })
	return s, nil
}

func classify(path string) File {
	name := filepath.Base(path)
	f := File{Path: filepath.ToSlash(path), Name: name, Kind: KindOther}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		f.Kind = KindVideo
	case ".csv":
		f.Kind = KindSensor
	case ".wav", ".mp3":
		f.Kind = KindAudio
	}
	if f.Kind == KindVideo || f.Kind == KindAudio {
		if epoch, ok := sensor.ParseEpochPrefix(name); ok {
			f.Epoch = epoch
		}
	}
	return f
}

// Videos returns the video sources in path order.
func (s *Set) Videos() []File { return s.byKind(KindVideo) }

// Audio returns the offset audio recordings in path order.
func (s *Set) Audio() []File { return s.byKind(KindAudio) }

// Sensors returns every CSV log in path order.
func (s *Set) Sensors() []File { return s.byKind(KindSensor) }

// GraphSources returns the sensor logs that are selectable graph sources on
// the setup step: path contains "Sensor" and the name is not dot-prefixed
// (editor droppings and macOS resource forks).
func (s *Set) GraphSources() []File {
	var out []File
	for _, f := range s.byKind(KindSensor) {
		if strings.Contains(f.Path, "Sensor") && !strings.HasPrefix(f.Name, ".") {
			out = append(out, f)
		}
	}
	return out
}

func (s *Set) byKind(k Kind) []File {
	var out []File
	for _, f := range s.Files {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// SetGraphKind records the chart style for a graph source.
func (s *Set) SetGraphKind(path string, kind GraphKind) error {
	if kind != GraphLine && kind != GraphBar {
		return fmt.Errorf("unknown graph kind %q", kind)
	}
	for _, f := range s.GraphSources() {
		if f.Path == path {
			s.graphKinds[path] = kind
			return nil
		}
	}
	return fmt.Errorf("%q is not a selectable graph source", path)
}

// GraphKindFor returns the chosen chart style for a graph source, defaulting
// to a line chart when none was chosen yet.
func (s *Set) GraphKindFor(path string) GraphKind {
	if k, ok := s.graphKinds[path]; ok {
		return k
	}
	return GraphLine
}

// AllGraphKindsChosen reports whether every selectable graph source has a
// chart style. The setup step requires this before the session starts.
func (s *Set) AllGraphKindsChosen() bool {
	for _, f := range s.GraphSources() {
		if _, ok := s.graphKinds[f.Path]; !ok {
			return false
		}
	}
	return true
}

// VideoEpoch returns the earliest video anchor of the set, the reference the
// audio alignment and sensor offsets hang off. Returns 0 when no video
// carries an epoch prefix.
func (s *Set) VideoEpoch() int64 {
	var epoch int64
	for _, f := range s.Videos() {
		if f.Epoch == 0 {
			continue
		}
		if epoch == 0 || f.Epoch < epoch {
			epoch = f.Epoch
		}
	}
	return epoch
}
