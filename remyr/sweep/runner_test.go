package sweep

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
)

// fakeTrainer honours the trainer's flags, writes a DNA file and a one-entry
// progress log, and exits 3 when given the delta-10 utility config.
const fakeTrainer = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --util) util="$2"; shift ;;
    --dna) dna="$2"; shift ;;
    --progress) prog="$2"; shift ;;
  esac
  shift
done
echo "training with $util"
case "$util" in
  *delta10.json) echo "policy diverged" >&2; exit 3 ;;
esac
echo dna > "$dna"
echo '{"timestamps":[0],"utility":[-1.5],"bandwidth":[10],"rtt":[0.1]}' > "$prog"
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	path := filepath.Join(t.TempDir(), "trainer.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func testTrainerConfig(command ...string) TrainerConfig {
	return TrainerConfig{
		Command:       command,
		TrainerConfig: "configs/trainer/remyr.json",
		NetworkConfig: "configs/network/simple.json",
		EvalConfig:    "configs/eval/simple.json",
		EvalTimes:     8,
	}
}

func TestRunner_Argv(t *testing.T) {
	// GIVEN a cargo-based trainer with both seeds fixed
	cfg := testTrainerConfig("cargo", "run", "--release", "--")
	trainingSeed, evalSeed := uint64(7), uint64(42)
	cfg.TrainingSeed = &trainingSeed
	cfg.EvalSeed = &evalSeed
	cfg.Force = true
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	spec, err := DefaultLayout().Spec("10", "new")
	require.NoError(t, err)

	// WHEN the argv is built
	argv := r.Argv(spec)

	// THEN every flag carries the run's paths as separate arguments
	want := []string{
		"cargo", "run", "--release", "--", "train",
		"-c", "configs/trainer/remyr.json",
		"--net", "configs/network/simple.json",
		"--util", filepath.Join("configs", "utility", "delta10.json"),
		"--dna", filepath.Join("trained", "remyr", "new", "delta10", "delta10.remyr.dna"),
		"--eval", "configs/eval/simple.json",
		"--eval-times", "8",
		"--progress", filepath.Join("trained", "remyr", "new", "delta10", "trainout.json"),
		"--force",
		"--training-seed", "7",
		"--eval-seed", "42",
	}
	assert.Equal(t, want, argv)
}

func TestRunner_Execute_SuccessWritesOutputs(t *testing.T) {
	// GIVEN the fake trainer and a planned delta-1 run
	script := writeScript(t, fakeTrainer)
	r, err := NewRunner(testTrainerConfig("/bin/sh", script))
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("1", "new")
	require.NoError(t, err)

	// WHEN it executes
	res := r.Execute(context.Background(), spec)

	// THEN the run succeeds, the run dir holds its outputs, and stdout is logged
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 0, res.ExitCode)
	assert.FileExists(t, spec.DNAPath)
	rec, err := progress.Load(spec.ProgressPath)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Len())
	log, err := os.ReadFile(spec.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(log), spec.UtilityConfig)
}

func TestRunner_Execute_NonZeroExitIsRunFailure(t *testing.T) {
	// GIVEN the fake trainer, which fails for delta 10
	script := writeScript(t, fakeTrainer)
	r, err := NewRunner(testTrainerConfig("/bin/sh", script))
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("10", "new")
	require.NoError(t, err)

	// WHEN it executes
	res := r.Execute(context.Background(), spec)

	// THEN the failure carries the exit status and stderr is in the log
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.ErrorIs(t, res.Err, remyr.ErrRunFailure)
	log, err := os.ReadFile(spec.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(log), "policy diverged")
	assert.NoFileExists(t, spec.DNAPath)
}

func TestRunner_Execute_Timeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nexec sleep 10\n")
	cfg := testTrainerConfig("/bin/sh", script)
	cfg.Timeout = 100 * time.Millisecond
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("1", "new")
	require.NoError(t, err)

	res := r.Execute(context.Background(), spec)

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, remyr.ErrRunFailure)
	assert.Contains(t, res.Err.Error(), "timed out")
	assert.Less(t, res.Duration, 5*time.Second)
}

func TestRunner_Execute_CancelledContextDoesNotInterrupt(t *testing.T) {
	// GIVEN an already-cancelled context
	script := writeScript(t, fakeTrainer)
	r, err := NewRunner(testTrainerConfig("/bin/sh", script))
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("1", "new")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN a run executes anyway
	res := r.Execute(ctx, spec)

	// THEN the trainer still runs to completion
	assert.True(t, res.Succeeded())
}

func TestRunner_Execute_MissingTrainer(t *testing.T) {
	r, err := NewRunner(testTrainerConfig(filepath.Join(t.TempDir(), "no-such-trainer")))
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("1", "new")
	require.NoError(t, err)

	res := r.Execute(context.Background(), spec)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, -1, res.ExitCode)
	assert.ErrorIs(t, res.Err, remyr.ErrRunFailure)
}

func TestTrainerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TrainerConfig)
	}{
		{"empty command", func(c *TrainerConfig) { c.Command = nil }},
		{"missing network", func(c *TrainerConfig) { c.NetworkConfig = "" }},
		{"zero eval times", func(c *TrainerConfig) { c.EvalTimes = 0 }},
		{"negative timeout", func(c *TrainerConfig) { c.Timeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTrainerConfig("trainer")
			tt.mutate(&cfg)
			_, err := NewRunner(cfg)
			assert.ErrorIs(t, err, remyr.ErrInvalidParameter)
		})
	}
}

func TestSweep_WithRunner_EndToEnd(t *testing.T) {
	// GIVEN the fake trainer wired into a sweep over both namespaces
	script := writeScript(t, fakeTrainer)
	r, err := NewRunner(testTrainerConfig("/bin/sh", script))
	require.NoError(t, err)
	l := tempLayout(t)

	// WHEN the sweep runs
	report, err := New(l, r, Options{}).Run(context.Background(), planQueue(t, l))

	// THEN delta 10 fails in both namespaces and everything else trains
	require.NoError(t, err)
	assert.Equal(t, 6, report.Count(StatusSucceeded))
	assert.Equal(t, 2, report.Count(StatusFailed))
	for _, res := range report.Results {
		if res.Succeeded() {
			assert.FileExists(t, res.Spec.ProgressPath)
		}
	}
}
