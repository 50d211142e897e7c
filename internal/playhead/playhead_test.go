package playhead

import (
	"testing"
)

func TestSetTimeClampsNegative(t *testing.T) {
	p := New()
	p.SetTime(-5)

	if got := p.Snapshot().CurrentTime; got != 0 {
		t.Errorf("CurrentTime = %v, want 0", got)
	}
}

func TestSetTime(t *testing.T) {
	p := New()
	p.SetTime(12.5)

	if got := p.Snapshot().CurrentTime; got != 12.5 {
		t.Errorf("CurrentTime = %v, want 12.5", got)
	}
}

func TestTogglePlayTwiceRestoresState(t *testing.T) {
	p := New()
	if p.Snapshot().Playing {
		t.Fatal("new playhead should be paused")
	}

	if !p.TogglePlay() {
		t.Error("first toggle should report playing")
	}
	if p.TogglePlay() {
		t.Error("second toggle should report paused")
	}
	if p.Snapshot().Playing {
		t.Error("playhead should be back to paused")
	}
}

func TestSetPlayingSuppressesRedundantNotification(t *testing.T) {
	p := New()
	var count int
	p.Subscribe(func(Snapshot) { count++ })

	p.SetPlaying(false) // already paused, no-op
	if count != 0 {
		t.Errorf("notifications = %d, want 0 for redundant state", count)
	}

	p.SetPlaying(true)
	p.SetPlaying(true) // redundant again
	if count != 1 {
		t.Errorf("notifications = %d, want 1", count)
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		delta float64
		want  float64
	}{
		{"forward", 20, 10, 30},
		{"backward", 20, -10, 10},
		{"below zero clamps", 5, -10, 0},
		{"past any duration is allowed", 20, 1e6, 20 + 1e6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.SetTime(tt.start)
			p.Skip(tt.delta)
			if got := p.Snapshot().CurrentTime; got != tt.want {
				t.Errorf("CurrentTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoToTime(t *testing.T) {
	p := New()
	p.GoToTime(1, 2, 3)

	if got := p.Snapshot().CurrentTime; got != 3723 {
		t.Errorf("CurrentTime = %v, want 3723", got)
	}
}

func TestListenersReceiveSnapshotsInOrder(t *testing.T) {
	p := New()
	var seen []float64
	p.Subscribe(func(s Snapshot) { seen = append(seen, s.CurrentTime) })

	p.SetTime(1)
	p.SetTime(2)
	p.Skip(3)

	want := []float64{1, 2, 5}
	if len(seen) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, seen[i], want[i])
		}
	}
}
