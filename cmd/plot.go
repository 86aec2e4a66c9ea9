package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowforge-sim/remyr-sweep/remyr/analysis"
	"github.com/flowforge-sim/remyr-sweep/remyr/plot"
	"github.com/flowforge-sim/remyr-sweep/remyr/progress"
	"github.com/flowforge-sim/remyr-sweep/remyr/trace"
)

var (
	plotOut string // HTML output path; defaults next to the input
	plotCSV string // optional CSV export of the derived series
)

var plotTraceCmd = &cobra.Command{
	Use:   "plot-trace <trace.json>",
	Short: "Render an evaluation trace as an HTML page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		tr, err := trace.Load(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeTracePlot(tr, htmlPath(args[0]), plotCSV); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

var plotTrainCmd = &cobra.Command{
	Use:   "plot-train <trainout.json>",
	Short: "Render a training progress log as an HTML page",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rec, err := progress.Load(args[0])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeTrainPlot(rec, htmlPath(args[0]), plotCSV); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func htmlPath(input string) string {
	if plotOut != "" {
		return plotOut
	}
	return strings.TrimSuffix(input, ".json") + ".html"
}

func writeTracePlot(tr *trace.Trace, out, csvPath string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := plot.RenderTrace(f, tr); err != nil {
		return err
	}
	logrus.Infof("Wrote %s", out)
	if csvPath == "" {
		return nil
	}
	rows, err := analysis.TraceRows(tr)
	if err != nil {
		return err
	}
	return writeCSVFile(csvPath, rows)
}

func writeTrainPlot(rec *progress.Record, out, csvPath string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := plot.RenderTrain(f, rec); err != nil {
		return err
	}
	logrus.Infof("Wrote %s", out)
	if csvPath == "" {
		return nil
	}
	rows, err := analysis.TrainRows(rec.WithoutWarmup())
	if err != nil {
		return err
	}
	return writeCSVFile(csvPath, rows)
}

func writeCSVFile(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := analysis.WriteCSV(f, rows); err != nil {
		return err
	}
	logrus.Infof("Wrote %s", path)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{plotTraceCmd, plotTrainCmd} {
		c.Flags().StringVarP(&plotOut, "out", "o", "", "HTML output path (default: input with .html extension)")
		c.Flags().StringVar(&plotCSV, "csv", "", "Also export the plotted series as CSV to this path")
	}
}
