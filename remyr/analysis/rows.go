package analysis

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
	"github.com/flowforge-sim/remyr-sweep/remyr/trace"
)

// cell formats an optional sample; missing samples are written empty.
func cell(f series.Float) string {
	v, ok := f.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TraceRow is one sample of a trace's whole-network view.
type TraceRow struct {
	Time               float64 `csv:"time_s"`
	AggregateBandwidth float64 `csv:"aggregate_bandwidth_kbps"`
	MeanRTT            string  `csv:"mean_rtt_ms"`
	AggregateUtility   string  `csv:"aggregate_utility"`
	ActiveSenders      int     `csv:"active_senders"`
}

// FlowRow is one flow at one sample.
type FlowRow struct {
	Time      float64 `csv:"time_s"`
	Flow      int     `csv:"flow"`
	Bandwidth float64 `csv:"bandwidth_kbps"`
	RTT       string  `csv:"rtt_ms"`
	Utility   string  `csv:"utility"`
}

// TrainRow is one checkpoint of a progress log with its derived views.
type TrainRow struct {
	Time       float64 `csv:"time_s"`
	Utility    float64 `csv:"utility"`
	Rescaled   float64 `csv:"rescaled_utility"`
	Bandwidth  float64 `csv:"bandwidth"`
	RTT        float64 `csv:"rtt"`
	InverseRTT float64 `csv:"inverse_rtt"`
}

// TraceRows flattens the aggregate panels of t.
func TraceRows(t *trace.Trace) ([]TraceRow, error) {
	bw, err := AggregateBandwidth(t)
	if err != nil {
		return nil, err
	}
	rtt, err := MeanRTT(t)
	if err != nil {
		return nil, err
	}
	rows := make([]TraceRow, t.Len())
	for i, ts := range t.Timestamps {
		rows[i] = TraceRow{
			Time:               ts,
			AggregateBandwidth: bw[i],
			MeanRTT:            cell(rtt[i]),
			AggregateUtility:   cell(t.AggregateUtility[i]),
			ActiveSenders:      t.ActiveSenders[i],
		}
	}
	return rows, nil
}

// FlowRows flattens every flow's series, flow-major.
func FlowRows(t *trace.Trace) ([]FlowRow, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	rows := make([]FlowRow, 0, len(t.Flows)*t.Len())
	for fi, f := range t.Flows {
		for i, ts := range t.Timestamps {
			rows = append(rows, FlowRow{
				Time:      ts,
				Flow:      fi,
				Bandwidth: f.BandwidthKbps[i],
				RTT:       cell(f.RTTMs[i]),
				Utility:   cell(f.Utility[i]),
			})
		}
	}
	return rows, nil
}

// TrainRows derives the plotted views of r. Callers usually pass
// r.WithoutWarmup(), since the warm-up checkpoint often has a zero RTT.
func TrainRows(r *progress.Record) ([]TrainRow, error) {
	rescaled, err := ExpRescale(r.Utility, DefaultRescale)
	if err != nil {
		return nil, err
	}
	inv, err := InverseRTT(r.RTT)
	if err != nil {
		return nil, err
	}
	rows := make([]TrainRow, r.Len())
	for i, ts := range r.Timestamps {
		rows[i] = TrainRow{
			Time:       ts,
			Utility:    r.Utility[i],
			Rescaled:   rescaled[i],
			Bandwidth:  r.Bandwidth[i],
			RTT:        r.RTT[i],
			InverseRTT: inv[i],
		}
	}
	return rows, nil
}

// WriteCSV writes rows (a slice of one of the row types) with a header.
func WriteCSV(w io.Writer, rows interface{}) error {
	data, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return fmt.Errorf("encoding csv: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
