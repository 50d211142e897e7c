package datawindow

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the valid samples of one column within a window. It feeds
// the chart subtitle so a reviewer can read the visible range at a glance.
type Stats struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summary computes Stats for the named column of w. It reports false when
// the window is empty or the column has no valid samples.
func Summary(w Window, column string) (Stats, bool) {
	if w.Empty {
		return Stats{}, false
	}
	col := -1
	for i, c := range w.Columns {
		if c == column {
			col = i
			break
		}
	}
	if col < 0 {
		return Stats{}, false
	}

	var xs []float64
	for _, row := range w.Rows {
		if v := row[col]; v.Valid {
			xs = append(xs, v.Float64)
		}
	}
	if len(xs) == 0 {
		return Stats{}, false
	}

	s := Stats{
		N:    len(xs),
		Min:  floats.Min(xs),
		Max:  floats.Max(xs),
		Mean: stat.Mean(xs, nil),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s, true
}

// String renders the stats in the compact form used by chart subtitles.
func (s Stats) String() string {
	return fmt.Sprintf("n=%d min=%.3g max=%.3g mean=%.3g sd=%.3g", s.N, s.Min, s.Max, s.Mean, s.StdDev)
}
