package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge-sim/remyr-sweep/internal/testutil"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
	"github.com/flowforge-sim/remyr-sweep/remyr/tracking"
	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

const shippedSweep = "../configs/sweep/remyr.yaml"

func TestShippedSweep_PlansForwardThenReversed(t *testing.T) {
	// GIVEN the sweep file shipped with the repository
	cfg, err := loadSweepConfig(shippedSweep)
	require.NoError(t, err)

	// WHEN its queue is printed
	queue, err := cfg.Queue(cfg.Layout())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, printQueue(&buf, queue))

	// THEN "new" runs ascending and "new2" descending, one line each
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1+8)
	assert.Contains(t, lines[1], "new/delta0.1")
	assert.Contains(t, lines[4], "new/delta100")
	assert.Contains(t, lines[5], "new2/delta100")
	assert.Contains(t, lines[8], "new2/delta0.1")
	assert.Contains(t, lines[1], filepath.Join("trained", "remyr", "new", "delta0.1", "delta0.1.remyr.dna"))
}

func TestLoadSweepConfig_ViperOverridesDirectories(t *testing.T) {
	dir := t.TempDir()
	viper.Set("output_root", dir)
	defer viper.Set("output_root", "")

	cfg, err := loadSweepConfig(shippedSweep)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Layout().OutputRoot)
}

type okExecutor struct{}

func (okExecutor) Execute(_ context.Context, spec sweep.RunSpec) sweep.RunResult {
	return sweep.RunResult{Spec: spec, Status: sweep.StatusSucceeded}
}

func testLayout(t *testing.T) sweep.Layout {
	t.Helper()
	dir := t.TempDir()
	return sweep.Layout{
		OutputRoot: filepath.Join(dir, "trained", "remyr"),
		Utility:    utility.NewFamily(filepath.Join(dir, "configs", "utility")),
	}
}

func TestRunSweep_ReportsEveryRun(t *testing.T) {
	// GIVEN a planned forward sweep and a trainer that always succeeds
	l := testLayout(t)
	queue, err := sweep.Plan(l, []string{"0.1", "1"}, "new", sweep.Forward)
	require.NoError(t, err)
	showProgress = false

	// WHEN it runs through the CLI wiring
	report, err := runSweep(context.Background(), l, okExecutor{}, tracking.Nop{}, queue, 1)

	// THEN both runs succeed and the manifest names the same sweep
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(sweep.StatusSucceeded))
	m, err := sweep.LoadManifest(l.ManifestPath("new"))
	require.NoError(t, err)
	assert.Equal(t, report.ID, m.SweepID)
}

// interruptingExecutor cancels the sweep while its run is in flight, the way
// SIGINT does, and lets the run finish.
type interruptingExecutor struct {
	cancel context.CancelFunc
}

func (e interruptingExecutor) Execute(_ context.Context, spec sweep.RunSpec) sweep.RunResult {
	e.cancel()
	return sweep.RunResult{Spec: spec, Status: sweep.StatusSucceeded}
}

type recordingTracker struct {
	statuses []sweep.Status
	ctxErrs  []error
}

func (r *recordingTracker) Track(ctx context.Context, _ string, res sweep.RunResult) error {
	r.statuses = append(r.statuses, res.Status)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return nil
}

func TestRunSweep_TracksRunsFinishedAfterInterrupt(t *testing.T) {
	// GIVEN a two-run sweep interrupted while its first run trains
	l := testLayout(t)
	queue, err := sweep.Plan(l, []string{"0.1", "1"}, "new", sweep.Forward)
	require.NoError(t, err)
	showProgress = false
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := &recordingTracker{}

	// WHEN it runs through the CLI wiring
	_, err = runSweep(ctx, l, interruptingExecutor{cancel: cancel}, tracker, queue, 1)
	require.NoError(t, err)

	// THEN the finished run and the skipped one are tracked with a live context
	assert.Equal(t, []sweep.Status{sweep.StatusSucceeded, sweep.StatusSkipped}, tracker.statuses)
	for i, ctxErr := range tracker.ctxErrs {
		assert.NoError(t, ctxErr, "tracked run %d", i)
	}
}

func TestSummarizeQueue_SkipsMissingLogs(t *testing.T) {
	// GIVEN three planned runs, two of which left progress logs
	l := testLayout(t)
	queue, err := sweep.Plan(l, []string{"0.1", "1", "10"}, "new", sweep.Forward)
	require.NoError(t, err)
	for i, final := range map[int]float64{0: -2.2, 2: -1.0} {
		rec := testutil.SampleRecord()
		rec.Utility[3] = final
		require.NoError(t, os.MkdirAll(queue[i].Dir(), 0755))
		require.NoError(t, rec.Save(queue[i].ProgressPath))
	}

	// WHEN the queue is summarized
	rows := summarizeQueue(queue)

	// THEN only the logged runs appear, in queue order, with z-scored finals
	require.Len(t, rows, 2)
	assert.Equal(t, "new/delta0.1", rows[0].Run)
	assert.Equal(t, "new/delta10", rows[1].Run)
	assert.InDelta(t, -1, rows[0].NormalizedFinal, 1e-12)
	assert.InDelta(t, 1, rows[1].NormalizedFinal, 1e-12)
}

func TestWriteTracePlot_HTMLAndCSV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "trace.html")
	csvPath := filepath.Join(dir, "trace.csv")

	require.NoError(t, writeTracePlot(testutil.TwoFlowTrace(), out, csvPath))

	assert.FileExists(t, out)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time_s,"))
}

func TestWriteTrainPlot_WarmupTrimmed(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "train.csv")

	require.NoError(t, writeTrainPlot(testutil.SampleRecord(), filepath.Join(dir, "train.html"), csvPath))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+3)
}

func TestWriteTrainPlot_ZeroRTT(t *testing.T) {
	rec := &progress.Record{
		Timestamps: []float64{0, 60},
		Utility:    []float64{-3, -2},
		Bandwidth:  []float64{0, 1},
		RTT:        []float64{0, 0},
	}
	err := writeTrainPlot(rec, filepath.Join(t.TempDir(), "train.html"), "")
	assert.Error(t, err)
}

func TestHTMLPath(t *testing.T) {
	plotOut = ""
	assert.Equal(t, filepath.Join("trained", "trainout.html"), htmlPath(filepath.Join("trained", "trainout.json")))
	plotOut = "x.html"
	defer func() { plotOut = "" }()
	assert.Equal(t, "x.html", htmlPath("trace.json"))
}
