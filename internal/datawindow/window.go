// Package datawindow computes the bounded slice of a sensor time series to
// display "now": the rows within a fixed half-window around the playhead,
// decimated down to a renderable point count.
//
// This runs on every playhead tick, so it only filters and strides over rows
// decoded once by the sensor package; nothing here re-parses.
package datawindow

import (
	"math"

	"github.com/fieldlab/session.review/internal/sensor"
)

// Window is the displayable slice of one series at one playhead position.
type Window struct {
	// Columns mirror the source series header.
	Columns   []string
	TimeIndex int
	// Rows are the filtered, decimated cells. Nil when Empty.
	Rows [][]sensor.Value
	// Factor is the decimation stride applied to the filtered rows.
	Factor int
	// Start and End bound the absolute time range of the window.
	Start, End float64
	// Empty reports that no sample falls inside the window. Callers must
	// surface this as an explicit no-data state rather than reusing stale
	// rows.
	Empty bool
}

// Slice filters s to the rows within ±halfWindow seconds of the playhead.
// The absolute anchor is the series' TimeOffset plus the floored playhead
// time, mirroring the whole-second granularity of the recordings.
func Slice(s *sensor.Series, current float64, halfWindow float64) Window {
	absoluteNow := float64(s.TimeOffset) + math.Floor(current)
	start, end := absoluteNow-halfWindow, absoluteNow+halfWindow

	var filtered [][]sensor.Value
	for i := range s.Rows {
		tv, ok := s.TimeAt(i)
		if !ok {
			continue
		}
		if tv < start || tv > end {
			continue
		}
		filtered = append(filtered, s.Rows[i])
	}

	w := Window{
		Columns:   s.Columns,
		TimeIndex: s.TimeIndex,
		Start:     start,
		End:       end,
	}
	if len(filtered) == 0 {
		w.Empty = true
		return w
	}
	w.Factor = DecimationFactor(len(filtered))
	w.Rows = Decimate(filtered, w.Factor)
	return w
}

// DecimationFactor returns the downsampling stride for n filtered rows. The
// ladder trades fidelity for render cost and is non-decreasing in n.
func DecimationFactor(n int) int {
	switch {
	case n <= 1000:
		return 1
	case n <= 5000:
		return 5
	case n <= 10000:
		return 10
	case n <= 50000:
		return 50
	default:
		return int(math.Ceil(float64(n) / 1000))
	}
}

// Decimate keeps every factor-th row, starting with the first. A factor
// below one is treated as one.
func Decimate(rows [][]sensor.Value, factor int) [][]sensor.Value {
	if factor <= 1 {
		return rows
	}
	out := make([][]sensor.Value, 0, len(rows)/factor+1)
	for i := 0; i < len(rows); i += factor {
		out = append(out, rows[i])
	}
	return out
}
