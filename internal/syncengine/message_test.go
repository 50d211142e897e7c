package syncengine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeValidMessages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Kind
	}{
		{"sync", `{"type":"sync","time":12.5,"isPlaying":true,"muted":false}`, KindSync},
		{"timeUpdate", `{"type":"timeUpdate","index":0,"time":3.2,"isPlaying":false}`, KindTimeUpdate},
		{"playStateChange", `{"type":"playStateChange","index":1,"isPlaying":true,"time":9}`, KindPlayStateChange},
		{"skipAll", `{"type":"skipAll","index":0,"seconds":-10}`, KindSkipAll},
		{"toggleMute", `{"type":"toggleMute","index":2,"muted":true}`, KindToggleMute},
		{"requestSync", `{"type":"requestSync","index":0}`, KindRequestSync},
		{"graph time", `{"type":"TIME_UPDATE","currentTime":55,"videoStartTime":1718000000}`, KindGraphTimeUpdate},
		{"file state", `{"type":"SINGLE_FILE_STATE","file":{"name":"a.mp4","path":"Videos/a.mp4"}}`, KindSingleFileState},
		{"graph ready", `{"type":"GRAPH_WINDOW_READY"}`, KindGraphWindowReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if m.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", m.Kind, tt.want)
			}
		})
	}
}

func TestDecodeRejectsBadMessages(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"type":`},
		{"no type", `{"time":1}`},
		{"unknown type", `{"type":"teleport"}`},
		{"sync missing muted", `{"type":"sync","time":1,"isPlaying":true}`},
		{"timeUpdate missing index", `{"type":"timeUpdate","time":1,"isPlaying":true}`},
		{"skipAll missing seconds", `{"type":"skipAll","index":0}`},
		{"file state without file", `{"type":"SINGLE_FILE_STATE"}`},
		{"file state empty name", `{"type":"SINGLE_FILE_STATE","file":{"name":"","path":"x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.in)); err == nil {
				t.Error("Decode() accepted a bad message")
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msgs := []Message{
		SyncMessage(12.5, true, false),
		TimeUpdateMessage(3, 7.25, false),
		PlayStateChangeMessage(0, true, 4),
		SkipAllMessage(1, -10),
		ToggleMuteMessage(0, true),
		RequestSyncMessage(2),
		GraphTimeUpdateMessage(55, 1718000000),
		SingleFileStateMessage("a.mp4", "Videos/a.mp4"),
		GraphWindowReadyMessage(),
	}

	for _, in := range msgs {
		data, err := in.Encode()
		if err != nil {
			t.Fatalf("Encode(%s) error: %v", in.Kind, err)
		}
		out, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", in.Kind, err)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("%s round trip mismatch (-in +out):\n%s", in.Kind, diff)
		}
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := (Message{Kind: KindSync}).Encode(); err == nil {
		t.Error("Encode() accepted a sync message with no fields")
	}
}
