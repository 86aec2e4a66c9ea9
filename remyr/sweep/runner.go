package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flowforge-sim/remyr-sweep/remyr"
)

// waitDelay bounds how long Execute waits for the log pipe to drain after
// the trainer's process group is killed.
const waitDelay = 5 * time.Second

// Executor runs one planned training run to completion.
type Executor interface {
	Execute(ctx context.Context, spec RunSpec) RunResult
}

// TrainerConfig is the fixed part of the trainer's argument contract.
type TrainerConfig struct {
	Command       []string      // argv prefix, e.g. ["cargo", "run", "--release"]
	TrainerConfig string        // -c
	NetworkConfig string        // --net
	EvalConfig    string        // --eval
	EvalTimes     int           // --eval-times
	Force         bool          // --force: let the trainer replace an existing DNA file
	TrainingSeed  *uint64       // --training-seed (trainer default when nil)
	EvalSeed      *uint64       // --eval-seed (trainer default when nil)
	Timeout       time.Duration // 0 = wait as long as the trainer runs
	WorkDir       string        // trainer working directory; empty = current
}

// Validate checks the contract fields that must be present.
func (c *TrainerConfig) Validate() error {
	if len(c.Command) == 0 || c.Command[0] == "" {
		return fmt.Errorf("%w: trainer command is empty", remyr.ErrInvalidParameter)
	}
	if c.TrainerConfig == "" || c.NetworkConfig == "" || c.EvalConfig == "" {
		return fmt.Errorf("%w: trainer, network and eval config paths are required", remyr.ErrInvalidParameter)
	}
	if c.EvalTimes <= 0 {
		return fmt.Errorf("%w: eval_times must be positive, got %d", remyr.ErrInvalidParameter, c.EvalTimes)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", remyr.ErrInvalidParameter)
	}
	return nil
}

// Runner executes RunSpecs as blocking trainer subprocesses.
type Runner struct {
	cfg TrainerConfig
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg TrainerConfig) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg}, nil
}

// Argv returns the full argument vector for spec. Paths are passed as
// separate arguments and never go through a shell.
func (r *Runner) Argv(spec RunSpec) []string {
	argv := append([]string{}, r.cfg.Command...)
	argv = append(argv,
		"train",
		"-c", r.cfg.TrainerConfig,
		"--net", r.cfg.NetworkConfig,
		"--util", spec.UtilityConfig,
		"--dna", spec.DNAPath,
		"--eval", r.cfg.EvalConfig,
		"--eval-times", strconv.Itoa(r.cfg.EvalTimes),
		"--progress", spec.ProgressPath,
	)
	if r.cfg.Force {
		argv = append(argv, "--force")
	}
	if r.cfg.TrainingSeed != nil {
		argv = append(argv, "--training-seed", strconv.FormatUint(*r.cfg.TrainingSeed, 10))
	}
	if r.cfg.EvalSeed != nil {
		argv = append(argv, "--eval-seed", strconv.FormatUint(*r.cfg.EvalSeed, 10))
	}
	return argv
}

// Execute starts the trainer and waits for it to exit. Trainer stdout and
// stderr go to spec.LogPath. The call blocks for the whole training run:
// ctx is not used to interrupt a started trainer, only the optional
// Timeout is.
func (r *Runner) Execute(_ context.Context, spec RunSpec) (res RunResult) {
	res = RunResult{Spec: spec, Started: time.Now(), ExitCode: -1}
	defer func() { res.Duration = time.Since(res.Started) }()

	if err := os.MkdirAll(spec.Dir(), 0755); err != nil {
		return res.fail(fmt.Errorf("%w: creating run dir: %v", remyr.ErrRunFailure, err))
	}
	logFile, err := os.Create(spec.LogPath)
	if err != nil {
		return res.fail(fmt.Errorf("%w: creating trainer log: %v", remyr.ErrRunFailure, err))
	}
	defer func() { _ = logFile.Close() }()

	runCtx := context.Background()
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, r.cfg.Timeout)
		defer cancel()
	}

	argv := r.Argv(spec)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.cfg.WorkDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Trainers are usually launched through a build tool that forks the
	// real trainer, so a timeout has to take down the whole process group.
	killProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	logrus.Debugf("%s: exec %v", spec.ID(), argv)
	err = cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
		res.Status = StatusSucceeded
		return res
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return res.fail(fmt.Errorf("%w: %s timed out after %s", remyr.ErrRunFailure, spec.ID(), r.cfg.Timeout))
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res.fail(fmt.Errorf("%w: %s exited with status %d (see %s)", remyr.ErrRunFailure, spec.ID(), res.ExitCode, spec.LogPath))
	default:
		return res.fail(fmt.Errorf("%w: %s could not start: %v", remyr.ErrRunFailure, spec.ID(), err))
	}
}
