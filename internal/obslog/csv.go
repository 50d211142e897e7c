package obslog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlab/session.review/internal/units"
)

// exportHeader is the coding-history CSV header, shared by export and the
// round-trip import.
var exportHeader = []string{
	"Observation ID", "Observation Name", "Type", "Timestamp", "Start Time", "End Time", "Duration",
}

// ExportCSV serialises the full log, one row per entry, sorted by start
// time. Times are HH:MM:SS; the timestamp is full ISO-8601; Duration is
// end minus start, empty when the entry has no end.
func (l *Log) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range l.Entries() {
		end, duration := "", ""
		if e.VideoTimeEnd != nil {
			end = units.FormatHMS(*e.VideoTimeEnd)
			duration = units.FormatHMS(*e.VideoTimeEnd - e.VideoTimeStart)
		}
		row := []string{
			e.ObservationID,
			e.ObservationName,
			string(e.ObservationType),
			e.Timestamp.Format(time.RFC3339),
			units.FormatHMS(e.VideoTimeStart),
			end,
			duration,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write entry %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportResult reports what a bulk import did.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	// NewObservations counts definitions synthesized for rows whose
	// (name, type) matched nothing in the session.
	NewObservations int `json:"newObservations"`
}

// ImportCSV merges external coding-history rows into the log. The first
// record is the header. Rows with fewer than five fields, an unknown type,
// or unparseable times are skipped; the remainder still imports. Rows whose
// normalized (name, type) pair matches no existing definition synthesize a
// new one. After the merge the whole log is re-sorted by start time, so the
// chronological view stays consistent regardless of batch order.
//
// A file with no data rows fails outright: no partial import, no change.
func (l *Log) ImportCSV(r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read import: %w", err)
	}
	if len(records) < 2 {
		return ImportResult{}, fmt.Errorf("import has no data rows")
	}
	records = records[1:] // header

	l.mu.Lock()
	defer l.mu.Unlock()

	// Index existing definitions by normalized (name, type).
	byKey := make(map[string]string, len(l.defs))
	for _, def := range l.defs {
		byKey[defKey(def.Name, def.Type)] = def.ID
	}

	var res ImportResult
	for _, rec := range records {
		e, name, ok := parseImportRow(rec)
		if !ok {
			res.Skipped++
			continue
		}

		key := defKey(name, e.ObservationType)
		defID, known := byKey[key]
		if !known {
			def := Observation{
				ID:   uuid.NewString(),
				Name: name,
				Type: e.ObservationType,
			}
			l.appendDefLocked(def)
			byKey[key] = def.ID
			defID = def.ID
			res.NewObservations++
		}
		e.ObservationID = defID
		l.entries = append(l.entries, e)
		res.Added++
	}

	if res.Added == 0 && res.Skipped > 0 {
		// Nothing usable; the resort below would be a no-op anyway, but
		// report the failure rather than a silent empty merge.
		return res, fmt.Errorf("import contained no usable rows (%d skipped)", res.Skipped)
	}
	l.resortLocked()
	return res, nil
}

// parseImportRow decodes one import record:
// observationId, name, type, isoTimestamp, start, end?
func parseImportRow(rec []string) (*Entry, string, bool) {
	if len(rec) < 5 {
		return nil, "", false
	}
	name := strings.TrimSpace(rec[1])
	if name == "" {
		return nil, "", false
	}
	typ, err := ParseType(rec[2])
	if err != nil {
		return nil, "", false
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[3]))
	if err != nil {
		return nil, "", false
	}
	start, err := units.ParseHMS(rec[4])
	if err != nil {
		return nil, "", false
	}

	e := &Entry{
		ID:              uuid.NewString(),
		ObservationName: name,
		ObservationType: typ,
		Timestamp:       ts,
		VideoTimeStart:  start,
	}
	if len(rec) >= 6 && strings.TrimSpace(rec[5]) != "" {
		end, err := units.ParseHMS(rec[5])
		if err != nil {
			return nil, "", false
		}
		e.VideoTimeEnd = &end
	}
	return e, name, true
}

func defKey(name string, t Type) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + string(t)
}
