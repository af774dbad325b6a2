package indexer

import (
	"fmt"
	"os"

	"gapnode/crypto"
	"gapnode/messages"

	"gopkg.in/yaml.v3"
)

// CatalogFile is the yaml seed of the development indexer.
type CatalogFile struct {
	Communities []messages.Community `yaml:"communities"`
}

func ReadCatalog(path string) ([]messages.Community, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file CatalogFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return file.Communities, nil
}

func WriteCatalog(path string, communities []messages.Community) error {
	content, err := yaml.Marshal(CatalogFile{Communities: communities})
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

// Seed checks and stores every community of a catalog.
func Seed(store *Store, communities []messages.Community) error {
	for _, community := range communities {
		if err := checkCommunity(community); err != nil {
			return err
		}
	}
	for _, community := range communities {
		if err := store.PutCommunity(community); err != nil {
			return err
		}
	}
	return nil
}

func checkCommunity(community messages.Community) error {
	if community.ID == "" {
		return fmt.Errorf("community without id")
	} else if !messages.IsSupportedNetwork(community.NetworkID) {
		return fmt.Errorf("community %s: unsupported network %d", community.ID, community.NetworkID)
	} else if community.EncryptionKey != "" {
		if err := crypto.CheckPubKey(community.EncryptionKey); err != nil {
			return fmt.Errorf("community %s: invalid encryption key: %w", community.ID, err)
		}
	}
	seen := make(map[string]bool)
	for _, program := range community.Programs {
		if program.ID == "" || seen[program.ID] {
			return fmt.Errorf("community %s: missing or repeated program id %q", community.ID, program.ID)
		}
		seen[program.ID] = true
	}
	return nil
}
