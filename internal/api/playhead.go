package api

import (
	"net/http"

	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/media"
)

type playheadResponse struct {
	CurrentTime float64 `json:"currentTime"`
	Playing     bool    `json:"isPlaying"`
	MaxDuration float64 `json:"maxDuration"`
	Muted       bool    `json:"muted"`
}

func (s *Server) playheadSnapshot() playheadResponse {
	snap := s.sess.Playhead().Snapshot()
	return playheadResponse{
		CurrentTime: snap.CurrentTime,
		Playing:     snap.Playing,
		MaxDuration: s.sess.Registry().MaxDuration(),
		Muted:       s.sess.Engine().Muted(),
	}
}

func (s *Server) handlePlayhead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		Time float64 `json:"time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.sess.Playhead().SetTime(req.Time)
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleTogglePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	s.sess.Playhead().TogglePlay()
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.sess.Engine().SkipAll(req.Seconds)
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		Hours   int `json:"hours"`
		Minutes int `json:"minutes"`
		Seconds int `json:"seconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Hours < 0 || req.Minutes < 0 || req.Minutes > 59 || req.Seconds < 0 || req.Seconds > 59 {
		httputil.BadRequest(w, "go-to time out of range")
		return
	}

	s.sess.Playhead().GoToTime(req.Hours, req.Minutes, req.Seconds)
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		Muted bool `json:"muted"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.sess.Engine().SetMuted(req.Muted)
	httputil.WriteJSONOK(w, s.playheadSnapshot())
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}
	httputil.WriteJSONOK(w, s.sess.Registry().Infos())
}

// handleMediaState lets an in-page playback surface report its progress. The
// sync engine converges the handle back toward the playhead on the next
// change if it drifts outside the dead-band.
func (s *Server) handleMediaState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		ID          string  `json:"id"`
		CurrentTime float64 `json:"currentTime"`
		Duration    float64 `json:"duration"`
		Playing     bool    `json:"isPlaying"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	h, ok := s.sess.Registry().Get(req.ID)
	if !ok {
		httputil.NotFound(w, "unknown media handle")
		return
	}
	h.Update(media.State{
		CurrentTime: req.CurrentTime,
		Duration:    req.Duration,
		Playing:     req.Playing,
	})
	httputil.WriteJSONOK(w, h.Info())
}

func (s *Server) handleAlignment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return
	}
	a, err := s.sess.Alignment(id)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, a)
}
