package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the merged run queue of a sweep without running anything",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSweepConfig(sweepConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		queue, err := cfg.Queue(cfg.Layout())
		if err != nil {
			logrus.Fatalf("Planning failed: %v", err)
		}
		if err := printQueue(os.Stdout, queue); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// printQueue writes one line per run in execution order.
func printQueue(w io.Writer, queue []sweep.RunSpec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tRUN\tUTILITY\tDNA\tPROGRESS")
	for i, s := range queue {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.ID(), s.UtilityConfig, s.DNAPath, s.ProgressPath)
	}
	return tw.Flush()
}

func init() {
	addSweepConfigFlag(planCmd)
}
