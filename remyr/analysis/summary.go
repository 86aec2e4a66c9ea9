package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

// Summary condenses one run's progress log for cross-run tables.
type Summary struct {
	Run             string  `csv:"run"`
	Checkpoints     int     `csv:"checkpoints"`
	TrainingTime    float64 `csv:"training_time_s"`
	FinalUtility    float64 `csv:"final_utility"`
	BestUtility     float64 `csv:"best_utility"`
	MeanUtility     float64 `csv:"mean_utility"`
	FinalBandwidth  float64 `csv:"final_bandwidth"`
	FinalRTT        float64 `csv:"final_rtt"`
	NormalizedFinal float64 `csv:"normalized_final_utility"`
}

// Summarize reduces r, minus its warm-up checkpoint, to one row.
func Summarize(run string, r *progress.Record) (Summary, error) {
	trimmed := r.WithoutWarmup()
	n := trimmed.Len()
	if n == 0 {
		return Summary{}, fmt.Errorf("%w: %s has no checkpoints after warm-up", remyr.ErrEmptySeries, run)
	}
	best, err := stats.Max(trimmed.Utility)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing %s: %w", run, err)
	}
	mean, err := stats.Mean(trimmed.Utility)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing %s: %w", run, err)
	}
	return Summary{
		Run:            run,
		Checkpoints:    n,
		TrainingTime:   trimmed.Timestamps[n-1],
		FinalUtility:   trimmed.Utility[n-1],
		BestUtility:    best,
		MeanUtility:    mean,
		FinalBandwidth: trimmed.Bandwidth[n-1],
		FinalRTT:       trimmed.RTT[n-1],
	}, nil
}

// NormalizeFinal fills NormalizedFinal with the z-score of each run's final
// utility across all rows. When the finals cannot be normalized (no rows,
// or all equal) the column stays 0 and the error is returned.
func NormalizeFinal(rows []Summary) error {
	finals := make([]float64, len(rows))
	for i, s := range rows {
		finals[i] = s.FinalUtility
	}
	z, err := utility.NormalizeValues(finals)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].NormalizedFinal = z[i]
	}
	return nil
}
