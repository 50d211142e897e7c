package api

import (
	"net/http"

	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/monitoring"
	"github.com/fieldlab/session.review/internal/obslog"
)

type observationView struct {
	obslog.Observation
	Recording bool `json:"recording"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		l := s.sess.Log()
		defs := l.Observations()
		out := make([]observationView, 0, len(defs))
		for _, def := range defs {
			out = append(out, observationView{Observation: def, Recording: l.Recording(def.ID)})
		}
		httputil.WriteJSONOK(w, out)

	case http.MethodPost:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Type        string `json:"type"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		t, err := obslog.ParseType(req.Type)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		obs, err := s.sess.Log().CreateObservation(req.Name, req.Description, t)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, obs)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			httputil.BadRequest(w, "missing 'id' parameter")
			return
		}
		s.sess.Log().DeleteObservation(id)
		httputil.WriteJSONOK(w, map[string]string{"deleted": id})

	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		httputil.WriteJSONOK(w, s.sess.Log().Entries())
	case http.MethodDelete:
		s.sess.Log().Clear()
		httputil.WriteJSONOK(w, map[string]bool{"cleared": true})
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleLogToggle records a click on an observation button at the current
// playhead time: one closed entry for Point observations, an open/close
// toggle for Duration ones.
func (s *Server) handleLogToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if !s.requireLoaded(w) {
		return
	}

	var req struct {
		ObservationID string `json:"observationId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	videoTime := s.sess.Playhead().Snapshot().CurrentTime
	entry, err := s.sess.Log().Toggle(req.ObservationID, videoTime)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, entry)
}

func (s *Server) handleLogEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		httputil.BadRequest(w, "missing 'id' parameter")
		return
	}
	s.sess.Log().DeleteEntry(id)
	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

func (s *Server) handleLogExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.CSVHeaders(w, "observation_log.csv")
	if err := s.sess.Log().ExportCSV(w); err != nil {
		// The CSV headers are already on the wire.
		monitoring.Logf("api: export observation log: %v", err)
	}
}

func (s *Server) handleLogImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	res, err := s.sess.Log().ImportCSV(r.Body)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, res)
}
