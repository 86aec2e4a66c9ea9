package utility

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
)

// Normalize standardises samples to zero mean and unit population variance
// over the present samples. Missing samples stay missing and are excluded
// from the mean and variance.
func Normalize(samples []series.Float) ([]series.Float, error) {
	present := series.Present(samples)
	if len(present) == 0 {
		return nil, fmt.Errorf("normalizing utility: %w", remyr.ErrEmptySeries)
	}
	mean, err := stats.Mean(present)
	if err != nil {
		return nil, fmt.Errorf("normalizing utility: %w", err)
	}
	std, err := stats.StandardDeviationPopulation(present)
	if err != nil {
		return nil, fmt.Errorf("normalizing utility: %w", err)
	}
	if std == 0 {
		return nil, fmt.Errorf("normalizing utility: %w", remyr.ErrZeroVariance)
	}

	out := make([]series.Float, len(samples))
	for i, s := range samples {
		if v, ok := s.Get(); ok {
			out[i] = series.Some((v - mean) / std)
		}
	}
	return out, nil
}

// NormalizeValues is Normalize for a series with no missing samples. The
// values must be finite.
func NormalizeValues(values []float64) ([]float64, error) {
	out, err := Normalize(series.FromFloats(values))
	if err != nil {
		return nil, err
	}
	return series.Present(out), nil
}
