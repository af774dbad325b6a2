package cmd

import (
	"os"

	"gapnode/config"

	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

var rootDir string

func init() {
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(KeysCmd)
	RootCmd.AddCommand(IndexerCmd)
	RootCmd.AddCommand(SubmitCmd)
	RootCmd.PersistentFlags().StringVar(&rootDir, "home", "./gaphome", "Home directory of the grant node")
}

var RootCmd = cobra.Command{
	Use:           "gapnode",
	Short:         "Grant and funding program submissions",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func loadConfig() (*config.Config, log.Logger, error) {
	configuration, err := config.Load(rootDir)
	if err != nil {
		return nil, nil, err
	}
	logger, err := configuration.Logger(os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	return configuration, logger, nil
}
