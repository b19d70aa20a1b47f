package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "handctl",
		Short:        "Classify poker hands and inspect stored results",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config file")

	cmd.AddCommand(
		newClassifyCmd(),
		newHandsCmd(&configPath),
		newStatsCmd(&configPath),
	)
	return cmd
}
