package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge-sim/remyr-sweep/internal/testutil"
	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
)

func TestSummarize_SkipsWarmup(t *testing.T) {
	s, err := Summarize("new/delta1", testutil.SampleRecord())
	require.NoError(t, err)

	assert.Equal(t, "new/delta1", s.Run)
	assert.Equal(t, 3, s.Checkpoints)
	assert.Equal(t, 180.0, s.TrainingTime)
	assert.Equal(t, -2.2, s.FinalUtility)
	assert.Equal(t, -2.2, s.BestUtility)
	testutil.AssertFloat64Equal(t, "mean_utility", -7.7/3, s.MeanUtility, 1e-12)
	assert.Equal(t, 12.4, s.FinalBandwidth)
	assert.Equal(t, 0.105, s.FinalRTT)
}

func TestSummarize_OnlyWarmup(t *testing.T) {
	rec := &progress.Record{Timestamps: []float64{0}, Utility: []float64{-9}, Bandwidth: []float64{0}, RTT: []float64{0}}
	_, err := Summarize("new/delta1", rec)
	assert.ErrorIs(t, err, remyr.ErrEmptySeries)
}

func TestNormalizeFinal(t *testing.T) {
	rows := []Summary{{FinalUtility: -3}, {FinalUtility: -2}, {FinalUtility: -1}}
	require.NoError(t, NormalizeFinal(rows))
	assert.InDelta(t, 0, rows[1].NormalizedFinal, 1e-12)
	assert.Less(t, rows[0].NormalizedFinal, rows[2].NormalizedFinal)
}

func TestNormalizeFinal_SingleRun(t *testing.T) {
	rows := []Summary{{FinalUtility: -3}}
	assert.ErrorIs(t, NormalizeFinal(rows), remyr.ErrZeroVariance)
	assert.Equal(t, 0.0, rows[0].NormalizedFinal)
}
