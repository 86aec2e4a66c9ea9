package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowforge-sim/remyr-sweep/remyr/analysis"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize every run's progress log of a sweep as CSV",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSweepConfig(sweepConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		queue, err := cfg.Queue(cfg.Layout())
		if err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}
		rows := summarizeQueue(queue)
		if len(rows) == 0 {
			logrus.Fatalf("No readable progress logs under %s", cfg.Layout().OutputRoot)
		}

		var w io.Writer = os.Stdout
		if reportOut != "" {
			f, err := os.Create(reportOut)
			if err != nil {
				logrus.Fatalf("Creating report: %v", err)
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := analysis.WriteCSV(w, rows); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// summarizeQueue summarizes each run that left a readable progress log, in
// queue order, and z-scores their final utilities.
func summarizeQueue(queue []sweep.RunSpec) []analysis.Summary {
	var rows []analysis.Summary
	for _, spec := range queue {
		rec, err := progress.Load(spec.ProgressPath)
		if errors.Is(err, os.ErrNotExist) {
			logrus.Infof("%s: no progress log yet", spec.ID())
			continue
		}
		if err != nil {
			logrus.Warnf("%s: %v", spec.ID(), err)
			continue
		}
		s, err := analysis.Summarize(spec.ID(), rec)
		if err != nil {
			logrus.Warnf("%s: %v", spec.ID(), err)
			continue
		}
		rows = append(rows, s)
	}
	if len(rows) > 0 {
		if err := analysis.NormalizeFinal(rows); err != nil {
			logrus.Warnf("Final utilities not normalized: %v", err)
		}
	}
	return rows
}

func init() {
	addSweepConfigFlag(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "CSV output path (default: stdout)")
}
