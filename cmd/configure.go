package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowforge-sim/remyr-sweep/remyr/utility"
)

var (
	configureDeltas    []string
	configureOverwrite bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write one alpha-fairness utility config per delta",
	Run: func(cmd *cobra.Command, args []string) {
		dir := viper.GetString("utility_dir")
		if dir == "" {
			dir = filepath.Join("configs", "utility")
		}
		family := utility.NewFamily(dir)
		family.Overwrite = configureOverwrite
		for _, d := range configureDeltas {
			ref, err := family.Configure(d)
			if err != nil {
				logrus.Fatalf("Configuring delta %s: %v", d, err)
			}
			fmt.Println(ref.Path)
		}
	},
}

func init() {
	configureCmd.Flags().StringSliceVar(&configureDeltas, "delta", []string{"0.1", "1", "10", "100"}, "Comma-separated fairness parameters")
	configureCmd.Flags().BoolVar(&configureOverwrite, "overwrite", false, "Replace existing configs whose content differs")
}
