// Package testutil provides shared test infrastructure for the remyr
// packages: small synthetic traces and progress logs plus float assertions.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
	"github.com/flowforge-sim/remyr-sweep/remyr/trace"
)

// TwoFlowTrace returns a valid 5-sample trace with two flows. Flow 1 joins
// at sample 2; before that its RTT and utility are missing. Sample 0 has no
// active flow, so its aggregate utility is missing too.
func TwoFlowTrace() *trace.Trace {
	none := series.None()
	return &trace.Trace{
		Timestamps: []float64{0.000, 0.001, 0.002, 0.003, 0.004},
		Flows: []trace.Flow{
			{
				BandwidthKbps: []float64{0, 800, 600, 500, 500},
				RTTMs:         []series.Float{none, series.Some(40), series.Some(45), series.Some(50), series.Some(50)},
				Utility:       []series.Float{none, series.Some(-1.0), series.Some(-1.2), series.Some(-1.4), series.Some(-1.4)},
			},
			{
				BandwidthKbps: []float64{0, 0, 200, 500, 500},
				RTTMs:         []series.Float{none, none, series.Some(55), series.Some(50), series.Some(50)},
				Utility:       []series.Float{none, none, series.Some(-2.0), series.Some(-1.4), series.Some(-1.4)},
			},
		},
		ActiveSenders:    []int{0, 1, 2, 2, 2},
		AggregateUtility: []series.Float{none, series.Some(-1.0), series.Some(-1.6), series.Some(-1.4), series.Some(-1.4)},
	}
}

// SampleRecord returns a valid 4-checkpoint progress log whose first entry
// is a warm-up sample.
func SampleRecord() *progress.Record {
	return &progress.Record{
		Timestamps: []float64{0, 60, 120, 180},
		Utility:    []float64{-9.0, -3.0, -2.5, -2.2},
		Bandwidth:  []float64{0, 11.5, 12.0, 12.4},
		RTT:        []float64{0, 0.120, 0.110, 0.105},
	}
}

// WriteFile writes data under dir and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
