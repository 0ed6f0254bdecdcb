package main

import (
	"fmt"
	"os"

	"PokerSync/config"
	"PokerSync/internal/utils"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	logger  *log.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pokersync",
		Short:         "Poker table client: state sync, turn timer, hand replay and leaderboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cfgFile); err != nil {
				return err
			}
			logger = utils.NewLogger(config.C.Log.Level)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default config/config.yaml)")

	root.AddCommand(newPlayCmd(), newDemoCmd(), newStatsCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
