package syncengine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldlab/session.review/internal/config"
	"github.com/fieldlab/session.review/internal/media"
	"github.com/fieldlab/session.review/internal/playhead"
	"github.com/fieldlab/session.review/internal/timeutil"
)

type fakeLink struct {
	mu   sync.Mutex
	msgs []Message
	fail bool
}

func (l *fakeLink) Send(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("window closed")
	}
	l.msgs = append(l.msgs, m)
	return nil
}

func (l *fakeLink) sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.msgs...)
}

func (l *fakeLink) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = nil
}

func (l *fakeLink) setFail(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = fail
}

// newTestEngine wires an engine with the given outbound throttle. Tests that
// are not about coalescing pass "0s" so every change sends immediately.
func newTestEngine(throttle string) (*Engine, *playhead.Playhead, *media.Registry, *timeutil.MockClock) {
	ph := playhead.New()
	reg := media.NewRegistry(ph)
	cfg := config.EmptyTuningConfig()
	cfg.UpdateThrottle = &throttle
	clock := timeutil.NewMockClock(time.Unix(1718000000, 0))
	return New(ph, reg, cfg, clock), ph, reg, clock
}

func announce(t *testing.T, e *Engine, id string) {
	t.Helper()
	if err := e.HandleInbound(id, []byte(`{"type":"requestSync","index":0}`)); err != nil {
		t.Fatalf("requestSync: %v", err)
	}
}

func TestLocalConvergenceDeadBand(t *testing.T) {
	_, ph, reg, _ := newTestEngine("0s")

	near := media.NewHandle("a.mp4", media.KindVideo, 0)
	near.Update(media.State{CurrentTime: 10.05, Duration: 60})
	reg.Register(near)

	// Within the dead-band: the handle must be left alone.
	ph.SetTime(10.0)
	if got := near.State().CurrentTime; got != 10.05 {
		t.Errorf("handle seeked inside the dead-band: %v", got)
	}

	// Outside it: exactly one hard seek to the playhead time.
	ph.SetTime(25.0)
	if got := near.State().CurrentTime; got != 25.0 {
		t.Errorf("handle at %v, want 25.0", got)
	}
}

func TestLocalConvergencePlayState(t *testing.T) {
	_, ph, reg, _ := newTestEngine("0s")

	h := media.NewHandle("a.mp4", media.KindVideo, 0)
	reg.Register(h)

	ph.TogglePlay()
	if !h.State().Playing {
		t.Error("handle not playing after toggle")
	}
	ph.TogglePlay()
	if h.State().Playing {
		t.Error("handle still playing after second toggle")
	}
}

func TestLinkNotTrustedUntilAnnounced(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)

	ph.SetTime(5)
	if n := len(out.sent()); n != 0 {
		t.Fatalf("unready link received %d event pushes", n)
	}

	announce(t, e, id)
	msgs := out.sent()
	if len(msgs) != 1 || msgs[0].Kind != KindSync {
		t.Fatalf("announce response = %+v, want one sync", msgs)
	}
	if *msgs[0].Time != 5 {
		t.Errorf("sync time = %v, want 5", *msgs[0].Time)
	}

	ph.SetTime(20)
	msgs = out.sent()
	if len(msgs) != 2 || *msgs[1].Time != 20 {
		t.Fatalf("ready link missed the change: %+v", msgs)
	}
}

func TestHeartbeatReachesUnreadyLinks(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	e.Attach(LinkVideo, out)
	ph.SetTime(7)
	out.reset()

	e.heartbeatTick()
	msgs := out.sent()
	if len(msgs) != 1 || msgs[0].Kind != KindSync || *msgs[0].Time != 7 {
		t.Fatalf("heartbeat push = %+v", msgs)
	}
}

func TestGraphLinkGetsGraphDialect(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	e.SetVideoEpoch(1718000123)
	out := &fakeLink{}
	id := e.Attach(LinkGraph, out)

	ph.SetTime(42)
	if err := e.HandleInbound(id, []byte(`{"type":"GRAPH_WINDOW_READY"}`)); err != nil {
		t.Fatalf("ready: %v", err)
	}

	msgs := out.sent()
	if len(msgs) != 1 || msgs[0].Kind != KindGraphTimeUpdate {
		t.Fatalf("graph push = %+v, want one TIME_UPDATE", msgs)
	}
	if *msgs[0].CurrentTime != 42 || *msgs[0].VideoStartTime != 1718000123 {
		t.Errorf("TIME_UPDATE = %+v", msgs[0])
	}
}

func TestSingleFileStateMarksReadyAndRecordsFile(t *testing.T) {
	e, _, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)

	err := e.HandleInbound(id, []byte(`{"type":"SINGLE_FILE_STATE","file":{"name":"cam1.mp4","path":"Videos/cam1.mp4"}}`))
	if err != nil {
		t.Fatalf("HandleInbound: %v", err)
	}

	links := e.Links()
	if len(links) != 1 || !links[0].Ready || links[0].File != "cam1.mp4" {
		t.Errorf("link info = %+v", links)
	}
	if msgs := out.sent(); len(msgs) != 1 || msgs[0].Kind != KindSync {
		t.Errorf("file announcement got %+v, want an immediate sync", msgs)
	}
}

func TestInboundTimeUpdateMovesPlayheadWithDeadBand(t *testing.T) {
	e, ph, _, clock := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)

	// Within the dead-band: no seek.
	if err := e.HandleInbound(id, []byte(`{"type":"timeUpdate","index":0,"time":0.05,"isPlaying":false}`)); err != nil {
		t.Fatal(err)
	}
	if got := ph.Snapshot().CurrentTime; got != 0 {
		t.Errorf("playhead moved inside the dead-band: %v", got)
	}

	// Outside: the playhead follows and the guard engages.
	if err := e.HandleInbound(id, []byte(`{"type":"timeUpdate","index":0,"time":30,"isPlaying":false}`)); err != nil {
		t.Fatal(err)
	}
	if got := ph.Snapshot().CurrentTime; got != 30 {
		t.Errorf("playhead = %v, want 30", got)
	}

	// While the guard holds, further inbound updates are echoes and drop.
	if err := e.HandleInbound(id, []byte(`{"type":"timeUpdate","index":0,"time":40,"isPlaying":false}`)); err != nil {
		t.Fatal(err)
	}
	if got := ph.Snapshot().CurrentTime; got != 30 {
		t.Errorf("guarded playhead moved to %v", got)
	}

	clock.Advance(50 * time.Millisecond)
	if err := e.HandleInbound(id, []byte(`{"type":"timeUpdate","index":0,"time":40,"isPlaying":false}`)); err != nil {
		t.Fatal(err)
	}
	if got := ph.Snapshot().CurrentTime; got != 40 {
		t.Errorf("playhead = %v after guard expiry, want 40", got)
	}
}

func TestRemoteUpdateNotEchoedToOrigin(t *testing.T) {
	e, _, _, _ := newTestEngine("0s")
	origin, other := &fakeLink{}, &fakeLink{}
	originID := e.Attach(LinkVideo, origin)
	otherID := e.Attach(LinkVideo, other)
	announce(t, e, originID)
	announce(t, e, otherID)
	origin.reset()
	other.reset()

	if err := e.HandleInbound(originID, []byte(`{"type":"timeUpdate","index":0,"time":30,"isPlaying":false}`)); err != nil {
		t.Fatal(err)
	}

	if msgs := origin.sent(); len(msgs) != 0 {
		t.Errorf("origin got its own update back: %+v", msgs)
	}
	msgs := other.sent()
	if len(msgs) != 1 || *msgs[0].Time != 30 {
		t.Errorf("peer link got %+v, want sync at 30", msgs)
	}
}

func TestInboundPlayStateChange(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)

	if err := e.HandleInbound(id, []byte(`{"type":"playStateChange","index":0,"isPlaying":true,"time":0}`)); err != nil {
		t.Fatal(err)
	}
	if !ph.Snapshot().Playing {
		t.Error("playhead not playing after remote play")
	}
}

func TestInboundSkipAll(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)
	ph.SetTime(30)

	if err := e.HandleInbound(id, []byte(`{"type":"skipAll","index":0,"seconds":-10}`)); err != nil {
		t.Fatal(err)
	}
	if got := ph.Snapshot().CurrentTime; got != 20 {
		t.Errorf("playhead = %v, want 20", got)
	}
}

func TestSkipAllBroadcast(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)
	ph.SetTime(30)
	out.reset()

	e.SkipAll(-10)

	if got := ph.Snapshot().CurrentTime; got != 20 {
		t.Errorf("playhead = %v, want 20", got)
	}
	msgs := out.sent()
	if len(msgs) == 0 || msgs[0].Kind != KindSkipAll || *msgs[0].Seconds != -10 {
		t.Fatalf("skip broadcast = %+v", msgs)
	}
}

func TestSetMutedFansOut(t *testing.T) {
	e, _, reg, _ := newTestEngine("0s")
	h := media.NewHandle("a.mp4", media.KindVideo, 0)
	reg.Register(h)
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)
	out.reset()

	if !e.Muted() {
		t.Fatal("session must start muted")
	}
	e.SetMuted(false)

	if e.Muted() || h.State().Muted {
		t.Error("mute state did not propagate locally")
	}
	msgs := out.sent()
	if len(msgs) != 1 || msgs[0].Kind != KindToggleMute || *msgs[0].Muted {
		t.Errorf("mute broadcast = %+v", msgs)
	}
}

func TestFailedSendDropsOnlyThatLink(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	good, bad := &fakeLink{}, &fakeLink{}
	goodID := e.Attach(LinkVideo, good)
	badID := e.Attach(LinkVideo, bad)
	announce(t, e, goodID)
	announce(t, e, badID)
	good.reset()
	bad.setFail(true)

	ph.SetTime(9)

	links := e.Links()
	if len(links) != 1 || links[0].ID != goodID {
		t.Fatalf("links after failure = %+v", links)
	}
	if msgs := good.sent(); len(msgs) != 1 || *msgs[0].Time != 9 {
		t.Errorf("surviving link got %+v", msgs)
	}
}

func TestHandleInboundUnknownLink(t *testing.T) {
	e, _, _, _ := newTestEngine("0s")
	if err := e.HandleInbound("missing", []byte(`{"type":"requestSync","index":0}`)); err == nil {
		t.Error("expected error for unknown link")
	}
}

func TestThrottleCoalescesBursts(t *testing.T) {
	e, ph, _, clock := newTestEngine("16ms")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)
	out.reset()

	ph.SetTime(1) // first change in a while: sent immediately
	ph.SetTime(2) // within the throttle window: deferred
	ph.SetTime(3)

	msgs := out.sent()
	if len(msgs) != 1 || *msgs[0].Time != 1 {
		t.Fatalf("burst sent %d messages, want 1 immediate: %+v", len(msgs), msgs)
	}

	clock.Advance(16 * time.Millisecond)
	msgs = out.sent()
	if len(msgs) != 2 {
		t.Fatalf("flush sent %d messages, want 2 total", len(msgs))
	}
	if *msgs[1].Time != 3 {
		t.Errorf("flushed time = %v, want the newest state 3", *msgs[1].Time)
	}
}

func TestDetach(t *testing.T) {
	e, ph, _, _ := newTestEngine("0s")
	out := &fakeLink{}
	id := e.Attach(LinkVideo, out)
	announce(t, e, id)
	out.reset()

	e.Detach(id)
	ph.SetTime(5)
	if msgs := out.sent(); len(msgs) != 0 {
		t.Errorf("detached link still receives: %+v", msgs)
	}
}
