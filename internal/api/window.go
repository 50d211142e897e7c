package api

import (
	"errors"
	"net/http"

	"github.com/fieldlab/session.review/internal/chart"
	"github.com/fieldlab/session.review/internal/datawindow"
	"github.com/fieldlab/session.review/internal/httputil"
	"github.com/fieldlab/session.review/internal/session"
)

type windowResponse struct {
	Columns   []string                    `json:"columns"`
	TimeIndex int                         `json:"timeIndex"`
	Rows      [][]*float64                `json:"rows"`
	Factor    int                         `json:"factor"`
	Start     float64                     `json:"start"`
	End       float64                     `json:"end"`
	Empty     bool                        `json:"empty"`
	Stats     map[string]datawindow.Stats `json:"stats,omitempty"`
}

func toWindowResponse(win datawindow.Window) windowResponse {
	resp := windowResponse{
		Columns:   win.Columns,
		TimeIndex: win.TimeIndex,
		Factor:    win.Factor,
		Start:     win.Start,
		End:       win.End,
		Empty:     win.Empty,
	}
	if win.Empty {
		return resp
	}

	resp.Rows = make([][]*float64, 0, len(win.Rows))
	for _, row := range win.Rows {
		out := make([]*float64, len(row))
		for i, cell := range row {
			if cell.Valid {
				v := cell.Float64
				out[i] = &v
			}
		}
		resp.Rows = append(resp.Rows, out)
	}

	resp.Stats = make(map[string]datawindow.Stats)
	for i, col := range win.Columns {
		if i == win.TimeIndex {
			continue
		}
		if stats, ok := datawindow.Summary(win, col); ok {
			resp.Stats[col] = stats
		}
	}
	return resp
}

func (s *Server) windowForRequest(w http.ResponseWriter, r *http.Request) (datawindow.Window, string, bool) {
	source := r.URL.Query().Get("source")
	if source == "" {
		httputil.BadRequest(w, "missing 'source' parameter")
		return datawindow.Window{}, "", false
	}

	win, err := s.sess.Window(source)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotLoaded), errors.Is(err, session.ErrNotStarted):
			httputil.Conflict(w, err.Error())
		default:
			httputil.NotFound(w, err.Error())
		}
		return datawindow.Window{}, "", false
	}
	return win, source, true
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	win, _, ok := s.windowForRequest(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, toWindowResponse(win))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	win, source, ok := s.windowForRequest(w, r)
	if !ok {
		return
	}
	kind, err := s.sess.GraphKindFor(source)
	if err != nil {
		httputil.Conflict(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(w, source, kind, win); err != nil {
		httputil.InternalServerError(w, err.Error())
	}
}
