// Package plot renders traces and progress logs as multi-panel HTML pages.
package plot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/sirupsen/logrus"

	"github.com/flowforge-sim/remyr-sweep/remyr/analysis"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
	"github.com/flowforge-sim/remyr-sweep/remyr/trace"
)

// missing is how echarts spells a gap in a line.
const missing = "-"

type panel struct {
	title string
	unit  string
	lines []line
}

type line struct {
	name string
	data []opts.LineData
}

func values(v []float64) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, x := range v {
		out[i] = opts.LineData{Value: x}
	}
	return out
}

func optional(v []series.Float) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, x := range v {
		if f, ok := x.Get(); ok {
			out[i] = opts.LineData{Value: f}
		} else {
			out[i] = opts.LineData{Value: missing}
		}
	}
	return out
}

func ints(v []int) []opts.LineData {
	out := make([]opts.LineData, len(v))
	for i, x := range v {
		out[i] = opts.LineData{Value: x}
	}
	return out
}

func axis(ts []float64) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = strconv.FormatFloat(t, 'f', -1, 64)
	}
	return out
}

func (p panel) chart(x []string) *charts.Line {
	c := charts.NewLine()
	c.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: p.title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: p.unit}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	c.SetXAxis(x)
	for _, l := range p.lines {
		c.AddSeries(l.name, l.data)
	}
	return c
}

func render(w io.Writer, title string, ts []float64, panels []panel) error {
	page := components.NewPage()
	page.PageTitle = title
	x := axis(ts)
	for _, p := range panels {
		page.AddCharts(p.chart(x))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering %s: %w", title, err)
	}
	return nil
}

// tracePanels lays out a trace: the network-wide panels first, then
// bandwidth, RTT and utility for each flow.
func tracePanels(t *trace.Trace) ([]panel, error) {
	bw, err := analysis.AggregateBandwidth(t)
	if err != nil {
		return nil, err
	}
	rtt, err := analysis.MeanRTT(t)
	if err != nil {
		return nil, err
	}
	util := []line{{name: "aggregate utility", data: optional(t.AggregateUtility)}}
	if norm, err := analysis.NormalizedUtility(t); err == nil {
		util = append(util, line{name: "normalized", data: optional(norm)})
	} else {
		logrus.Debugf("omitting normalized utility: %v", err)
	}

	panels := []panel{
		{title: "Aggregate bandwidth", unit: "kbps", lines: []line{{name: "bandwidth", data: values(bw)}}},
		{title: "Mean RTT", unit: "ms", lines: []line{{name: "rtt", data: optional(rtt)}}},
		{title: "Aggregate utility", lines: util},
		{title: "Active senders", lines: []line{{name: "senders", data: ints(t.ActiveSenders)}}},
	}
	for i, f := range t.Flows {
		name := fmt.Sprintf("flow %d", i)
		panels = append(panels,
			panel{title: name + " bandwidth", unit: "kbps", lines: []line{{name: name, data: values(f.BandwidthKbps)}}},
			panel{title: name + " RTT", unit: "ms", lines: []line{{name: name, data: optional(f.RTTMs)}}},
			panel{title: name + " utility", lines: []line{{name: name, data: optional(f.Utility)}}},
		)
	}
	return panels, nil
}

// RenderTrace writes the trace's page as standalone HTML.
func RenderTrace(w io.Writer, t *trace.Trace) error {
	panels, err := tracePanels(t)
	if err != nil {
		return err
	}
	return render(w, "RemyR trace", t.Timestamps, panels)
}

// trainPanels lays out a progress log without its warm-up checkpoint.
// A zero RTT after warm-up is an error.
func trainPanels(r *progress.Record) ([]panel, error) {
	trimmed := r.WithoutWarmup()
	rescaled, err := analysis.ExpRescale(trimmed.Utility, analysis.DefaultRescale)
	if err != nil {
		return nil, err
	}
	inv, err := analysis.InverseRTT(trimmed.RTT)
	if err != nil {
		return nil, err
	}
	return []panel{
		{title: "Utility", lines: []line{{name: "utility", data: values(trimmed.Utility)}}},
		{title: fmt.Sprintf("exp((utility - min) * %g)", analysis.DefaultRescale), lines: []line{{name: "rescaled", data: values(rescaled)}}},
		{title: "Bandwidth", lines: []line{{name: "bandwidth", data: values(trimmed.Bandwidth)}}},
		{title: "1 / RTT", lines: []line{{name: "inverse rtt", data: values(inv)}}},
	}, nil
}

// RenderTrain writes the progress log's page as standalone HTML.
func RenderTrain(w io.Writer, r *progress.Record) error {
	panels, err := trainPanels(r)
	if err != nil {
		return err
	}
	return render(w, "RemyR training progress", r.WithoutWarmup().Timestamps, panels)
}
