package analysis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge-sim/remyr-sweep/internal/testutil"
	"github.com/flowforge-sim/remyr-sweep/remyr"
)

func TestTraceRows_WriteCSV_MissingIsEmpty(t *testing.T) {
	// GIVEN the aggregate rows of a trace whose first sample has no RTT
	rows, err := TraceRows(testutil.TwoFlowTrace())
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// WHEN written as CSV
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	// THEN there is a header plus one line per sample and gaps are empty
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "time_s,aggregate_bandwidth_kbps,mean_rtt_ms,aggregate_utility,active_senders", lines[0])
	assert.Equal(t, "0,0,,,0", lines[1])
	assert.Equal(t, "0.002,800,50,-1.6,2", lines[3])
}

func TestFlowRows_FlowMajor(t *testing.T) {
	rows, err := FlowRows(testutil.TwoFlowTrace())
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, 0, rows[4].Flow)
	assert.Equal(t, 1, rows[5].Flow)
	assert.Equal(t, 200.0, rows[7].Bandwidth)
	assert.Empty(t, rows[6].RTT)
}

func TestTrainRows_AfterWarmup(t *testing.T) {
	rows, err := TrainRows(testutil.SampleRecord().WithoutWarmup())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 60.0, rows[0].Time)
	assert.Equal(t, 1.0, rows[0].Rescaled)
	testutil.AssertFloat64Equal(t, "inverse_rtt", 1/0.105, rows[2].InverseRTT, 1e-12)
}

func TestTrainRows_WarmupZeroRTT(t *testing.T) {
	_, err := TrainRows(testutil.SampleRecord())
	assert.ErrorIs(t, err, remyr.ErrDivideByZero)
}
