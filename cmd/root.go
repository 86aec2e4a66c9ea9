package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowforge-sim/remyr-sweep/remyr/sweep"
)

var (
	logLevel        string // Log verbosity level
	sweepConfigPath string // Sweep definition file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "remyr-sweep",
	Short: "Train RemyR policies across a family of fairness parameters and inspect the results",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up global flags and subcommands
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().String("output-root", "", "Root of trained outputs (overrides the sweep file and REMYR_OUTPUT_ROOT)")
	rootCmd.PersistentFlags().String("utility-dir", "", "Directory of utility configs (overrides the sweep file and REMYR_UTILITY_DIR)")
	rootCmd.PersistentFlags().String("tracking-uri", "", "MLflow tracking URI; empty disables tracking (REMYR_TRACKING_URI)")
	rootCmd.PersistentFlags().String("experiment-id", "", "MLflow experiment ID (REMYR_EXPERIMENT_ID)")
	_ = viper.BindPFlag("output_root", rootCmd.PersistentFlags().Lookup("output-root"))
	_ = viper.BindPFlag("utility_dir", rootCmd.PersistentFlags().Lookup("utility-dir"))
	_ = viper.BindPFlag("tracking_uri", rootCmd.PersistentFlags().Lookup("tracking-uri"))
	_ = viper.BindPFlag("experiment_id", rootCmd.PersistentFlags().Lookup("experiment-id"))

	rootCmd.AddCommand(planCmd, sweepCmd, configureCmd, plotTraceCmd, plotTrainCmd, reportCmd)
}

func initConfig() {
	viper.SetEnvPrefix("REMYR")
	viper.AutomaticEnv()
	_ = viper.BindEnv("databricks_host", "DATABRICKS_HOST")
	_ = viper.BindEnv("databricks_token", "DATABRICKS_TOKEN")
}

// loadSweepConfig reads the sweep file and applies directory overrides
// from flags or the environment.
func loadSweepConfig(path string) (*sweep.Config, error) {
	cfg, err := sweep.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("output_root"); v != "" {
		cfg.OutputRoot = v
	}
	if v := viper.GetString("utility_dir"); v != "" {
		cfg.UtilityDir = v
	}
	return cfg, nil
}

func addSweepConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&sweepConfigPath, "config", "c", "configs/sweep/remyr.yaml", "Sweep definition file")
}
