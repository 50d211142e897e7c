// Command chart-export renders one sensor CSV as a standalone HTML chart
// page, without running the review server.
//
// This is useful for eyeballing a sensor log before loading a whole session
// folder: point it at a CSV, pick a playhead time, and open the output in a
// browser.
//
// Usage:
//
//	go run ./cmd/tools/chart-export [flags]
//
// Flags:
//
//	-in      Sensor CSV to render (required)
//	-out     Output HTML file (default: chart.html)
//	-at      Playhead time in seconds (default: 0)
//	-window  Half-window in seconds (default: 10)
//	-kind    Chart kind, line or bar (default: line)
//	-epoch   Unix-seconds anchor of the series; defaults to the filename prefix
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/fieldlab/session.review/internal/chart"
	"github.com/fieldlab/session.review/internal/datawindow"
	"github.com/fieldlab/session.review/internal/fileset"
	"github.com/fieldlab/session.review/internal/sensor"
)

func main() {
	in := flag.String("in", "", "Sensor CSV to render")
	out := flag.String("out", "chart.html", "Output HTML file")
	at := flag.Float64("at", 0, "Playhead time in seconds")
	window := flag.Float64("window", 10, "Half-window in seconds")
	kind := flag.String("kind", "line", "Chart kind: line or bar")
	epoch := flag.Int64("epoch", 0, "Unix-seconds anchor of the series")
	flag.Parse()

	if *in == "" {
		log.Fatal("-in is required")
	}
	graphKind := fileset.GraphKind(*kind)
	if graphKind != fileset.GraphLine && graphKind != fileset.GraphBar {
		log.Fatalf("unknown chart kind %q", *kind)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("failed to open sensor log: %v", err)
	}
	defer f.Close()

	name := filepath.Base(*in)
	series, err := sensor.Decode(name, f)
	if err != nil {
		log.Fatalf("failed to decode sensor log: %v", err)
	}
	series.TimeOffset = *epoch
	if *epoch == 0 {
		if prefix, ok := sensor.ParseEpochPrefix(name); ok {
			series.TimeOffset = prefix
		}
	}

	win := datawindow.Slice(series, *at, *window)
	log.Printf("window %.0f to %.0f: %d rows, stride %d", win.Start, win.End, len(win.Rows), win.Factor)

	o, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer o.Close()

	if err := chart.Render(o, name, graphKind, win); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s", *out)
}
