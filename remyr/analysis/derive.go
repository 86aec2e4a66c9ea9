// Package analysis derives the views plotted from traces and progress logs.
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
	"github.com/flowforge-sim/remyr-sweep/remyr/trace"
	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

// DefaultRescale makes utility differences near the optimum visible.
const DefaultRescale = 10.0

// ExpRescale returns exp((u - min(u)) * k) for each sample.
func ExpRescale(u []float64, k float64) ([]float64, error) {
	if len(u) == 0 {
		return nil, fmt.Errorf("%w: rescaling empty utility", remyr.ErrEmptySeries)
	}
	lo := floats.Min(u)
	out := make([]float64, len(u))
	for i, v := range u {
		out[i] = math.Exp((v - lo) * k)
	}
	return out, nil
}

// InverseRTT returns 1/rtt elementwise. A zero sample is an error rather
// than an infinity.
func InverseRTT(rtt []float64) ([]float64, error) {
	out := make([]float64, len(rtt))
	for i, v := range rtt {
		if v == 0 {
			return nil, fmt.Errorf("%w: rtt[%d] is 0", remyr.ErrDivideByZero, i)
		}
		out[i] = 1 / v
	}
	return out, nil
}

// AggregateBandwidth sums every flow's bandwidth at each sample. A trace
// that fails Validate is rejected with remyr.ErrSchemaViolation.
func AggregateBandwidth(t *trace.Trace) ([]float64, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	sum := make([]float64, t.Len())
	for _, f := range t.Flows {
		floats.Add(sum, f.BandwidthKbps)
	}
	return sum, nil
}

// MeanRTT averages the present RTTs at each sample. A sample where no flow
// has an RTT is missing.
func MeanRTT(t *trace.Trace) ([]series.Float, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	out := make([]series.Float, t.Len())
	for i := range out {
		var sum float64
		var n int
		for _, f := range t.Flows {
			if v, ok := f.RTTMs[i].Get(); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[i] = series.Some(sum / float64(n))
		}
	}
	return out, nil
}

// NormalizedUtility z-scores the trace's aggregate utility.
func NormalizedUtility(t *trace.Trace) ([]series.Float, error) {
	return utility.Normalize(t.AggregateUtility)
}
