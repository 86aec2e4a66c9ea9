package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
	"github.com/flowforge-sim/remyr-sweep/remyr/tracking"
)

var (
	parallelism      int  // Overrides the sweep file when > 0
	overwriteUtility bool // Replace utility configs whose content differs
	showProgress     bool // Draw a progress bar
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Write utility configs, then train one policy per delta and namespace",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSweepConfig(sweepConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if parallelism > 0 {
			cfg.Parallelism = parallelism
		}
		layout := cfg.Layout()
		layout.Utility.Overwrite = overwriteUtility

		queue, err := cfg.Queue(layout)
		if err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}
		for _, d := range cfg.Deltas {
			if _, err := layout.Utility.Configure(d); err != nil {
				logrus.Fatalf("Configuring delta %s: %v", d, err)
			}
		}

		runner, err := sweep.NewRunner(cfg.TrainerConfig())
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		tracker, err := tracking.New(tracking.ConfigFromViper())
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := runSweep(ctx, layout, runner, tracker, queue, cfg.Parallelism)
		if err != nil {
			logrus.Fatalf("Sweep failed to start: %v", err)
		}
		printSummary(report)
	},
}

func runSweep(ctx context.Context, layout sweep.Layout, exec sweep.Executor, tracker tracking.Tracker, queue []sweep.RunSpec, par int) (*sweep.Report, error) {
	id := uuid.NewString()
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(queue)), "training")
	}
	opts := sweep.Options{
		ID:          id,
		Parallelism: par,
		OnResult: func(res sweep.RunResult) {
			if bar != nil {
				_ = bar.Add(1)
			}
			// A run allowed to finish after an interrupt is still tracked.
			if err := tracker.Track(context.WithoutCancel(ctx), id, res); err != nil {
				logrus.Warnf("Tracking %s: %v", res.Spec.ID(), err)
			}
		},
	}
	return sweep.New(layout, exec, opts).Run(ctx, queue)
}

func printSummary(report *sweep.Report) {
	fmt.Printf("Sweep %s finished in %s: %d succeeded, %d failed, %d skipped\n",
		report.ID, report.Finished.Sub(report.Started).Round(time.Second),
		report.Count(sweep.StatusSucceeded), report.Count(sweep.StatusFailed), report.Count(sweep.StatusSkipped))
	if err := report.Failures(); err != nil {
		logrus.Warnf("%v", err)
	}
}

func init() {
	addSweepConfigFlag(sweepCmd)
	sweepCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent trainer processes (0 = use the sweep file)")
	sweepCmd.Flags().BoolVar(&overwriteUtility, "overwrite-utility", false, "Replace existing utility configs whose content differs")
	sweepCmd.Flags().BoolVar(&showProgress, "progress", true, "Show a progress bar")
}
