package cmd

import (
	"fmt"
	"os"

	"gapnode/config"
	"gapnode/crypto"
	"gapnode/indexer"
	"gapnode/messages"

	ecies "github.com/ecies/go"
	"github.com/spf13/cobra"
)

const communityKeyFile = "config/community.key"

var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config, wallet key and catalog files",
	RunE:  initialize,
}

// initialize never overwrites existing files.
func initialize(cmd *cobra.Command, args []string) error {
	configuration := config.Default(rootDir)
	if exists(configuration.Path("config/config.toml")) {
		loaded, err := config.Load(rootDir)
		if err != nil {
			return err
		}
		configuration = loaded
	} else if err := configuration.Write(); err != nil {
		return err
	}

	keyFile := configuration.Path(configuration.Wallet.KeyFile)
	if !exists(keyFile) {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		if err := crypto.SaveKey(keyFile, key); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s\n", crypto.Address(key).Hex())
	}

	catalogFile := configuration.Path(configuration.Indexer.CatalogFile)
	if exists(catalogFile) {
		return nil
	}
	communityKey, err := ecies.GenerateKey()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configuration.Path(communityKeyFile), []byte(communityKey.Hex()), 0600); err != nil {
		return err
	}
	communities := append([]messages.Community(nil), genCommunities...)
	communities[0].EncryptionKey = communityKey.PublicKey.Hex(true)
	return indexer.WriteCatalog(catalogFile, communities)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
