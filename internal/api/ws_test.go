package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fieldlab/session.review/internal/syncengine"
)

func TestWebSocketLinkLifecycle(t *testing.T) {
	mux, sess, root := newTestServer(t)
	loadSession(t, mux, root)
	sess.Playhead().SetTime(42)

	ts := httptest.NewServer(mux)
	defer ts.Close()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?kind=video"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Announce readiness; the engine answers with an immediate state push.
	err = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"requestSync","index":0}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	m, err := syncengine.Decode(data)
	if err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if m.Kind != syncengine.KindSync || *m.Time != 42 {
		t.Errorf("push = %+v, want sync at 42", m)
	}

	// An inbound position report folds into the playhead.
	err = conn.Write(ctx, websocket.MessageText, []byte(`{"type":"timeUpdate","index":0,"time":90,"isPlaying":false}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sess.Playhead().Snapshot().CurrentTime == 90 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := sess.Playhead().Snapshot().CurrentTime; got != 90 {
		t.Errorf("playhead = %v after remote update, want 90", got)
	}
}

func TestWebSocketRejectsUnknownKind(t *testing.T) {
	mux, _, _ := newTestServer(t)
	w := do(t, mux, http.MethodGet, "/ws?kind=hologram", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
