package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fieldlab/session.review/internal/datawindow"
	"github.com/fieldlab/session.review/internal/fileset"
	"github.com/fieldlab/session.review/internal/sensor"
)

func testWindow(n int) datawindow.Window {
	s := &sensor.Series{
		Name:       "imu.csv",
		Columns:    []string{"Time", "W"},
		TimeIndex:  0,
		TimeOffset: 1718000000,
	}
	for i := 0; i < n; i++ {
		s.Rows = append(s.Rows, []sensor.Value{
			{Float64: float64(1718000000 + i), Valid: true},
			{Float64: float64(i), Valid: true},
		})
	}
	return datawindow.Slice(s, float64(n)/2, 10)
}

func TestRenderLine(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "Sensor/imu.csv", fileset.GraphLine, testWindow(20)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	page := buf.String()
	if !strings.Contains(page, "Sensor/imu.csv") {
		t.Error("page missing the source title")
	}
	if !strings.Contains(page, "echarts") {
		t.Error("page is not an echarts document")
	}
}

func TestRenderBar(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "Sensor/imu.csv", fileset.GraphBar, testWindow(20)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "echarts") {
		t.Error("page is not an echarts document")
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	s := &sensor.Series{Columns: []string{"Time", "W"}, TimeOffset: 0}
	win := datawindow.Slice(s, 100, 10)

	var buf bytes.Buffer
	if err := Render(&buf, "Sensor/imu.csv", fileset.GraphLine, win); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "no data at this time") {
		t.Error("empty window must render the explicit no-data page")
	}
}

func TestRenderEscapesSourceName(t *testing.T) {
	s := &sensor.Series{Columns: []string{"Time", "W"}, TimeOffset: 0}
	win := datawindow.Slice(s, 100, 10)

	var buf bytes.Buffer
	if err := Render(&buf, `<script>alert(1)</script>`, fileset.GraphLine, win); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("source name not escaped in the no-data page")
	}
}
