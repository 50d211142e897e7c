package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/monitoring"
	"github.com/fieldlab/session.review/internal/syncengine"
)

// wsWriteTimeout bounds one outbound push. Sync messages are fire-and-forget;
// a window that cannot accept a write within this is treated as closed.
const wsWriteTimeout = 5 * time.Second

// wsLink adapts a websocket connection to the engine's outbound Link.
type wsLink struct {
	conn *websocket.Conn
}

func (l *wsLink) Send(m syncengine.Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	return l.conn.Write(ctx, websocket.MessageText, data)
}

// handleWebSocket turns a detached browser window into a sync link. The
// window declares what it hosts with ?kind=video|graph, then speaks the
// message protocol: its first announcement flips the link to ready.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	var kind syncengine.LinkKind
	switch r.URL.Query().Get("kind") {
	case "", "video":
		kind = syncengine.LinkVideo
	case "graph":
		kind = syncengine.LinkGraph
	default:
		httputil.BadRequest(w, "unknown link kind")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Detached windows of a localhost tool; no cross-origin audience.
		InsecureSkipVerify: true,
	})
	if err != nil {
		monitoring.Logf("ws: accept: %v", err)
		return
	}

	engine := s.sess.Engine()
	id := engine.Attach(kind, &wsLink{conn: conn})
	monitoring.Logf("ws: link %s attached (%s)", id, kind)

	defer func() {
		engine.Detach(id)
		conn.Close(websocket.StatusNormalClosure, "")
		monitoring.Logf("ws: link %s detached", id)
	}()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Window closed or connection lost; the deferred detach
			// drops the link and nothing else is affected.
			return
		}
		if err := engine.HandleInbound(id, data); err != nil {
			monitoring.Logf("ws: link %s: %v", id, err)
		}
	}
}
