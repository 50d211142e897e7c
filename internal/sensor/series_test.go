package sensor

import (
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	csv := "Time,W,X\n1718000000,0.5,1.5\n1718000001,,2.5\n1718000002,abc,3.5\n"
	s, err := Decode("Sensor1.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}

	if len(s.Columns) != 3 || s.Columns[1] != "W" {
		t.Fatalf("Columns = %v", s.Columns)
	}
	if s.TimeIndex != 0 {
		t.Errorf("TimeIndex = %d, want 0", s.TimeIndex)
	}
	if len(s.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(s.Rows))
	}

	if tv, ok := s.TimeAt(0); !ok || tv != 1718000000 {
		t.Errorf("TimeAt(0) = %v, %v", tv, ok)
	}
	// Empty and non-numeric cells decode as nulls, not errors.
	if s.Rows[1][1].Valid {
		t.Error("empty cell decoded as valid")
	}
	if s.Rows[2][1].Valid {
		t.Error("non-numeric cell decoded as valid")
	}
	if v := s.Rows[1][2]; !v.Valid || v.Float64 != 2.5 {
		t.Errorf("Rows[1][2] = %+v", v)
	}
}

func TestDecodeRaggedRowsPadded(t *testing.T) {
	csv := "Time,W,X\n1,0.5\n"
	s, err := Decode("s.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if len(s.Rows[0]) != 3 {
		t.Fatalf("row length = %d, want 3", len(s.Rows[0]))
	}
	if s.Rows[0][2].Valid {
		t.Error("missing trailing cell should be null")
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	if _, err := Decode("s.csv", strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestDetectTimeColumn(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    int
		ok      bool
	}{
		{"named time", []string{"W", "Time", "X"}, 1, true},
		{"case insensitive", []string{"W", "TIMESTAMP"}, 1, true},
		{"date", []string{"W", "RecordDate"}, 1, true},
		{"embedded", []string{"elapsed_time_s", "W"}, 0, true},
		{"fallback to first", []string{"W", "X", "Y"}, 0, true},
		{"no columns", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectTimeColumn(tt.columns)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DetectTimeColumn(%v) = %d, %v; want %d, %v", tt.columns, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestValueColumns(t *testing.T) {
	s := &Series{Columns: []string{"W", "Time", "X"}, TimeIndex: 1}
	got := s.ValueColumns()
	if len(got) != 2 || got[0] != "W" || got[1] != "X" {
		t.Errorf("ValueColumns() = %v", got)
	}
}

func TestParseEpochPrefix(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		epoch int64
		ok    bool
	}{
		{"typical", "1718000000_cam1.mp4", 1718000000, true},
		{"digits then dot", "1718000000.mp4", 1718000000, true},
		{"no digits", "cam1.mp4", 0, false},
		{"digits not leading", "cam_1718000000.mp4", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			epoch, ok := ParseEpochPrefix(tt.in)
			if epoch != tt.epoch || ok != tt.ok {
				t.Errorf("ParseEpochPrefix(%q) = %d, %v; want %d, %v", tt.in, epoch, ok, tt.epoch, tt.ok)
			}
		})
	}
}
