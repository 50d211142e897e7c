// Package sensor decodes companion CSV logs into time series the data
// window provider can slice.
//
// Parsing happens once per source; every playhead tick only filters the
// decoded rows, so the decode keeps rows in a flat columnar-ish layout
// instead of per-row maps.
package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoTimeColumn reports a series whose header offers nothing to anchor the
// timeline to. The error stays local to the affected graph.
var ErrNoTimeColumn = errors.New("sensor: no detectable time column")

// Value is a numeric-or-null cell.
type Value struct {
	Float64 float64
	Valid   bool
}

// Series is one decoded sensor log.
type Series struct {
	// Name is the source file name the series came from.
	Name string
	// Columns are the header names in file order.
	Columns []string
	// TimeIndex is the designated time column within Columns.
	TimeIndex int
	// Rows holds one slice of cells per data row, aligned with Columns.
	Rows [][]Value
	// TimeOffset is the unix epoch of the series' first sample, typically
	// parsed from the companion video's filename prefix.
	TimeOffset int64
}

// Decode reads a CSV sensor log. The first record is the header; the time
// column is auto-detected from it. Cells that fail to parse as numbers
// decode as null values rather than failing the row.
func Decode(name string, r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows tolerated, padded with nulls

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("sensor %s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("sensor %s: read header: %w", name, err)
	}

	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}
	timeIndex, ok := DetectTimeColumn(columns)
	if !ok {
		return nil, fmt.Errorf("sensor %s: %w", name, ErrNoTimeColumn)
	}

	s := &Series{
		Name:      name,
		Columns:   columns,
		TimeIndex: timeIndex,
	}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sensor %s: read row: %w", name, err)
		}
		row := make([]Value, len(columns))
		for i := range columns {
			if i >= len(record) {
				continue
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err == nil {
				row[i] = Value{Float64: f, Valid: true}
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

// DetectTimeColumn picks the designated time column: the first header whose
// name contains "time", "date" or "timestamp" (case-insensitive), else the
// first column. Detection fails only when there are no columns at all.
func DetectTimeColumn(columns []string) (int, bool) {
	if len(columns) == 0 {
		return 0, false
	}
	for i, c := range columns {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "time") || strings.Contains(lower, "date") || strings.Contains(lower, "timestamp") {
			return i, true
		}
	}
	return 0, true
}

// TimeAt returns the time cell of row i, reporting false for null cells.
func (s *Series) TimeAt(i int) (float64, bool) {
	v := s.Rows[i][s.TimeIndex]
	return v.Float64, v.Valid
}

// ValueColumns returns the column names excluding the time column, the
// plottable series of the log.
func (s *Series) ValueColumns() []string {
	out := make([]string, 0, len(s.Columns)-1)
	for i, c := range s.Columns {
		if i == s.TimeIndex {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ParseEpochPrefix extracts the leading unix-seconds prefix from a recording
// filename, e.g. "1718000000_cam1.mp4". It reports false when the name does
// not start with digits.
func ParseEpochPrefix(filename string) (int64, bool) {
	end := 0
	for end < len(filename) && filename[end] >= '0' && filename[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	epoch, err := strconv.ParseInt(filename[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return epoch, true
}
