package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"gapnode/indexer"

	"github.com/spf13/cobra"
)

var IndexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Run the development indexer",
	RunE:  runIndexer,
}

func runIndexer(cmd *cobra.Command, args []string) error {
	configuration, logger, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := indexer.OpenStore(configuration.Home, configuration.Indexer.DBBackend, configuration.Indexer.DBDir, configuration.Indexer.IndexDelay)
	if err != nil {
		return err
	}
	defer store.Close()

	communities, err := indexer.ReadCatalog(configuration.Path(configuration.Indexer.CatalogFile))
	if err != nil {
		return err
	}
	if err := indexer.Seed(store, communities); err != nil {
		return err
	}

	server := indexer.NewServer(store, configuration.Indexer.ListenAddr, logger)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		_ = server.Stop()
		server.Wait()
	}()

	sign := make(chan os.Signal, 1)
	signal.Notify(sign, syscall.SIGINT, syscall.SIGTERM)
	<-sign
	return nil
}
