// Package chart renders sensor data windows as standalone HTML chart pages.
// It draws only what the data window provider hands it: a filtered, decimated
// slice, never a whole series.
package chart

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fieldlab/session.review/internal/datawindow"
	"github.com/fieldlab/session.review/internal/fileset"
)

type renderer interface {
	Render(w io.Writer) error
}

// Render writes an HTML page charting one window of a sensor source, styled
// as the line or bar chart chosen for that source at setup. An empty window
// renders an explicit no-data page instead of a blank chart.
func Render(w io.Writer, source string, kind fileset.GraphKind, win datawindow.Window) error {
	if win.Empty {
		return renderNoData(w, source, win)
	}

	labels := timeLabels(win)
	sub := subtitle(win)

	var r renderer
	switch kind {
	case fileset.GraphBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(globalOptions(source, sub)...)
		bar.SetXAxis(labels)
		for _, col := range valueColumns(win) {
			bar.AddSeries(col.name, barData(col.values))
		}
		r = bar
	default:
		line := charts.NewLine()
		line.SetGlobalOptions(globalOptions(source, sub)...)
		line.SetXAxis(labels)
		for _, col := range valueColumns(win) {
			line.AddSeries(col.name, lineData(col.values),
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		}
		r = line
	}
	return r.Render(w)
}

func globalOptions(source, sub string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: source,
			Width:     "1200px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: source, Subtitle: sub}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	}
}

// subtitle summarises the window: its absolute bounds, the decimation stride
// and per-column stats, so a reviewer can read the visible range at a glance.
func subtitle(win datawindow.Window) string {
	parts := []string{fmt.Sprintf("window %.0f to %.0f, stride %d", win.Start, win.End, win.Factor)}
	for _, col := range valueColumns(win) {
		if stats, ok := datawindow.Summary(win, col.name); ok {
			parts = append(parts, fmt.Sprintf("%s: %s", col.name, stats))
		}
	}
	return strings.Join(parts, " | ")
}

func timeLabels(win datawindow.Window) []string {
	labels := make([]string, 0, len(win.Rows))
	for _, row := range win.Rows {
		cell := row[win.TimeIndex]
		if !cell.Valid {
			labels = append(labels, "")
			continue
		}
		labels = append(labels, strconv.FormatFloat(cell.Float64, 'f', -1, 64))
	}
	return labels
}

type column struct {
	name   string
	values []*float64
}

func valueColumns(win datawindow.Window) []column {
	out := make([]column, 0, len(win.Columns)-1)
	for i, name := range win.Columns {
		if i == win.TimeIndex {
			continue
		}
		col := column{name: name}
		for _, row := range win.Rows {
			if cell := row[i]; cell.Valid {
				v := cell.Float64
				col.values = append(col.values, &v)
			} else {
				col.values = append(col.values, nil)
			}
		}
		out = append(out, col)
	}
	return out
}

func lineData(values []*float64) []opts.LineData {
	out := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, opts.LineData{Value: nil})
			continue
		}
		out = append(out, opts.LineData{Value: *v})
	}
	return out
}

func barData(values []*float64) []opts.BarData {
	out := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, opts.BarData{Value: nil})
			continue
		}
		out = append(out, opts.BarData{Value: *v})
	}
	return out
}

const noDataHTML = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>%s</h2>
<p>no data at this time (window %.0f to %.0f)</p>
</body>
</html>
`

func renderNoData(w io.Writer, source string, win datawindow.Window) error {
	safe := html.EscapeString(source)
	_, err := fmt.Fprintf(w, noDataHTML, safe, safe, win.Start, win.End)
	return err
}
