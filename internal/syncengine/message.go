package syncengine

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the inter-window message union. The upper-case kinds are
// the graph-window dialect; the lower-case kinds drive video popups.
type Kind string

const (
	// KindSync pushes the authoritative playhead to a video popup.
	KindSync Kind = "sync"
	// KindTimeUpdate reports a popup's own playback position inbound.
	KindTimeUpdate Kind = "timeUpdate"
	// KindPlayStateChange reports a popup play/pause transition inbound.
	KindPlayStateChange Kind = "playStateChange"
	// KindSkipAll jumps every surface by a relative number of seconds.
	KindSkipAll Kind = "skipAll"
	// KindToggleMute flips the mute state of every video surface.
	KindToggleMute Kind = "toggleMute"
	// KindRequestSync asks the authority for an immediate sync push.
	KindRequestSync Kind = "requestSync"
	// KindGraphTimeUpdate pushes the playhead to a graph window.
	KindGraphTimeUpdate Kind = "TIME_UPDATE"
	// KindSingleFileState announces which source file a popup hosts.
	KindSingleFileState Kind = "SINGLE_FILE_STATE"
	// KindGraphWindowReady signals a graph window finished initializing.
	KindGraphWindowReady Kind = "GRAPH_WINDOW_READY"
)

// FileRef names the source file a single-file popup is playing.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Message is the tagged union carried over every detached-window link. Every
// kind is fire-and-forget: there is no acknowledgement field and both sides
// must tolerate loss and duplication.
type Message struct {
	Kind Kind `json:"type"`

	Time      *float64 `json:"time,omitempty"`
	IsPlaying *bool    `json:"isPlaying,omitempty"`
	Muted     *bool    `json:"muted,omitempty"`
	Index     *int     `json:"index,omitempty"`
	Seconds   *float64 `json:"seconds,omitempty"`

	// Graph dialect fields.
	CurrentTime    *float64 `json:"currentTime,omitempty"`
	VideoStartTime *int64   `json:"videoStartTime,omitempty"`

	File *FileRef `json:"file,omitempty"`
}

// SyncMessage builds the authority-to-popup state push.
func SyncMessage(time float64, isPlaying, muted bool) Message {
	return Message{Kind: KindSync, Time: &time, IsPlaying: &isPlaying, Muted: &muted}
}

// TimeUpdateMessage builds a popup's position report.
func TimeUpdateMessage(index int, time float64, isPlaying bool) Message {
	return Message{Kind: KindTimeUpdate, Index: &index, Time: &time, IsPlaying: &isPlaying}
}

// PlayStateChangeMessage builds a popup's play/pause report.
func PlayStateChangeMessage(index int, isPlaying bool, time float64) Message {
	return Message{Kind: KindPlayStateChange, Index: &index, IsPlaying: &isPlaying, Time: &time}
}

// SkipAllMessage builds the relative jump broadcast.
func SkipAllMessage(index int, seconds float64) Message {
	return Message{Kind: KindSkipAll, Index: &index, Seconds: &seconds}
}

// ToggleMuteMessage builds the mute broadcast.
func ToggleMuteMessage(index int, muted bool) Message {
	return Message{Kind: KindToggleMute, Index: &index, Muted: &muted}
}

// RequestSyncMessage builds a popup's request for an immediate push.
func RequestSyncMessage(index int) Message {
	return Message{Kind: KindRequestSync, Index: &index}
}

// GraphTimeUpdateMessage builds the playhead push for graph windows, which
// need the session's video epoch to anchor their series offsets.
func GraphTimeUpdateMessage(currentTime float64, videoStartTime int64) Message {
	return Message{Kind: KindGraphTimeUpdate, CurrentTime: &currentTime, VideoStartTime: &videoStartTime}
}

// SingleFileStateMessage builds the popup's file announcement.
func SingleFileStateMessage(name, path string) Message {
	return Message{Kind: KindSingleFileState, File: &FileRef{Name: name, Path: path}}
}

// GraphWindowReadyMessage builds the graph readiness signal.
func GraphWindowReadyMessage() Message {
	return Message{Kind: KindGraphWindowReady}
}

// Decode parses and validates one wire message. Unknown kinds and known kinds
// missing their required fields are rejected, so dispatch downstream can rely
// on the fields its kind promises.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks that every field the message's kind requires is present.
func (m Message) Validate() error {
	switch m.Kind {
	case KindSync:
		return m.require("time", m.Time != nil, "isPlaying", m.IsPlaying != nil, "muted", m.Muted != nil)
	case KindTimeUpdate:
		return m.require("index", m.Index != nil, "time", m.Time != nil, "isPlaying", m.IsPlaying != nil)
	case KindPlayStateChange:
		return m.require("index", m.Index != nil, "isPlaying", m.IsPlaying != nil, "time", m.Time != nil)
	case KindSkipAll:
		return m.require("index", m.Index != nil, "seconds", m.Seconds != nil)
	case KindToggleMute:
		return m.require("index", m.Index != nil, "muted", m.Muted != nil)
	case KindRequestSync:
		return m.require("index", m.Index != nil)
	case KindGraphTimeUpdate:
		return m.require("currentTime", m.CurrentTime != nil, "videoStartTime", m.VideoStartTime != nil)
	case KindSingleFileState:
		if m.File == nil || m.File.Name == "" {
			return fmt.Errorf("%s message missing file", m.Kind)
		}
		return nil
	case KindGraphWindowReady:
		return nil
	case "":
		return fmt.Errorf("message has no type")
	}
	return fmt.Errorf("unknown message type %q", m.Kind)
}

// require takes alternating field-name, present pairs.
func (m Message) require(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !pairs[i+1].(bool) {
			return fmt.Errorf("%s message missing %s", m.Kind, pairs[i].(string))
		}
	}
	return nil
}

// Encode serialises the message for the wire.
func (m Message) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}
