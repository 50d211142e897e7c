package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/fieldlab/session.review/internal/fileset"
	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/security"
)

type sessionStatus struct {
	Loaded  bool `json:"loaded"`
	Started bool `json:"started"`
	Muted   bool `json:"muted"`
	Links   int  `json:"links"`
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, sessionStatus{
		Loaded:  s.sess.Loaded(),
		Started: s.sess.Started(),
		Muted:   s.sess.Engine().Muted(),
		Links:   len(s.sess.Engine().Links()),
	})
}

func (s *Server) handleLoadFolder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Path == "" {
		httputil.BadRequest(w, "missing 'path'")
		return
	}
	if s.sessionsDir != "" {
		if err := security.ValidateSessionPath(req.Path, s.sessionsDir); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if !info.IsDir() {
		httputil.BadRequest(w, "session path is not a directory")
		return
	}

	if err := s.sess.LoadFolder(os.DirFS(req.Path), filepath.Base(req.Path)); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	files, err := s.sess.Files()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, files)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	if err := s.sess.StartReview(); err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]bool{"started": true})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	files, err := s.sess.Files()
	if err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, files)
}

func (s *Server) handleGraphSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sources, err := s.sess.GraphSources()
	if err != nil {
		httputil.Conflict(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, sources)
}

func (s *Server) handleSetGraphKind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if err := s.sess.SetGraphKind(req.Path, fileset.GraphKind(req.Kind)); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"path": req.Path, "kind": req.Kind})
}
