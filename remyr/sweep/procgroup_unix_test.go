//go:build unix

package sweep

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forkingTrainer mimics `cargo run`: the process the runner starts forks
// the real trainer and waits on it.
const forkingTrainer = `#!/bin/sh
sh -c 'sleep 1; echo still-training > "$REMYR_TEST_MARKER"'
:
`

func TestRunner_Execute_TimeoutKillsForkedTrainer(t *testing.T) {
	// GIVEN a launcher whose forked trainer writes a marker after one second
	marker := filepath.Join(t.TempDir(), "marker")
	t.Setenv("REMYR_TEST_MARKER", marker)
	script := writeScript(t, forkingTrainer)
	cfg := testTrainerConfig("/bin/sh", script)
	cfg.Timeout = 200 * time.Millisecond
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	spec, err := tempLayout(t).Spec("1", "new")
	require.NoError(t, err)

	// WHEN the run times out
	res := r.Execute(context.Background(), spec)
	require.Equal(t, StatusFailed, res.Status)
	require.Contains(t, res.Err.Error(), "timed out")

	// THEN the forked trainer died with the launcher and never wrote the marker
	time.Sleep(1500 * time.Millisecond)
	assert.NoFileExists(t, marker)
}
