// Package api exposes the review session over localhost HTTP: JSON endpoints
// for the playhead, media, observations and data windows, a websocket
// endpoint that turns a detached browser window into a sync link, and HTML
// chart pages for the sensor graphs.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/session"
	"github.com/fieldlab/session.review/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server serves one review session.
type Server struct {
	sess *session.Session
	// sessionsDir restricts which folders the load endpoint may open.
	// Empty means unrestricted.
	sessionsDir string
}

// NewServer creates a server around the given session. A non-empty
// sessionsDir confines folder loading to paths inside it.
func NewServer(sess *session.Session, sessionsDir string) *Server {
	return &Server{sess: sess, sessionsDir: sessionsDir}
}

// ServeMux builds the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/session", s.handleSessionStatus)
	mux.HandleFunc("/api/session/load", s.handleLoadFolder)
	mux.HandleFunc("/api/session/start", s.handleStartReview)
	mux.HandleFunc("/api/files", s.handleFiles)
	mux.HandleFunc("/api/graphs", s.handleGraphSources)
	mux.HandleFunc("/api/graphs/kind", s.handleSetGraphKind)

	mux.HandleFunc("/api/playhead", s.handlePlayhead)
	mux.HandleFunc("/api/playhead/time", s.handleSetTime)
	mux.HandleFunc("/api/playhead/toggle", s.handleTogglePlay)
	mux.HandleFunc("/api/playhead/skip", s.handleSkip)
	mux.HandleFunc("/api/playhead/goto", s.handleGoTo)
	mux.HandleFunc("/api/mute", s.handleMute)

	mux.HandleFunc("/api/media", s.handleMedia)
	mux.HandleFunc("/api/media/state", s.handleMediaState)
	mux.HandleFunc("/api/media/alignment", s.handleAlignment)

	mux.HandleFunc("/api/observations", s.handleObservations)
	mux.HandleFunc("/api/log", s.handleLog)
	mux.HandleFunc("/api/log/toggle", s.handleLogToggle)
	mux.HandleFunc("/api/log/entry", s.handleLogEntry)
	mux.HandleFunc("/api/log/export", s.handleLogExport)
	mux.HandleFunc("/api/log/import", s.handleLogImport)

	mux.HandleFunc("/api/window", s.handleWindow)
	mux.HandleFunc("/charts/window", s.handleChart)
	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("/api/version", s.handleVersion)
	return mux
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"version": version.Version})
}

// decodeJSON reads a small JSON request body.
func decodeJSON(r *http.Request, v interface{}) error {
	const maxBody = 1 << 20
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse request body: %w", err)
	}
	return nil
}

// requireLoaded rejects review operations issued before a folder is loaded,
// the state a page reload leaves the browser in.
func (s *Server) requireLoaded(w http.ResponseWriter) bool {
	if !s.sess.Loaded() {
		httputil.Conflict(w, session.ErrNotLoaded.Error())
		return false
	}
	return true
}
