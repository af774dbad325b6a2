package cmd

import (
	"fmt"
	"os"
	"strings"

	"gapnode/crypto"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Wallet and community keys",
}

var showKeyCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the wallet address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration, _, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := crypto.LoadKey(configuration.Path(configuration.Wallet.KeyFile))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), crypto.Address(key).Hex())
		return nil
	},
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt [encrypted answer]",
	Short: "Decrypt a private answer with the community key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration, _, err := loadConfig()
		if err != nil {
			return err
		}
		key, err := os.ReadFile(configuration.Path(communityKeyFile))
		if err != nil {
			return err
		}
		encrypted, err := hexutil.Decode(args[0])
		if err != nil {
			return err
		}
		answer, err := crypto.Decrypt(strings.TrimSpace(string(key)), encrypted)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(answer))
		return nil
	},
}

func init() {
	KeysCmd.AddCommand(showKeyCmd)
	KeysCmd.AddCommand(decryptCmd)
}
