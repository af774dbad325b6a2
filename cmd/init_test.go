package cmd

import (
	"bytes"
	"strings"
	"testing"

	"gapnode/config"
	"gapnode/crypto"
	"gapnode/indexer"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndKeys(t *testing.T) {
	rootDir = t.TempDir()
	var output bytes.Buffer
	InitCmd.SetOut(&output)
	require.NoError(t, initialize(InitCmd, nil))
	wallet := strings.TrimPrefix(strings.TrimSpace(output.String()), "Wallet ")

	configuration, err := config.Load(rootDir)
	require.NoError(t, err)
	communities, err := indexer.ReadCatalog(configuration.Path(configuration.Indexer.CatalogFile))
	require.NoError(t, err)
	require.Len(t, communities, len(genCommunities))
	assert.NoError(t, crypto.CheckPubKey(communities[0].EncryptionKey))
	assert.Empty(t, genCommunities[0].EncryptionKey, "the seed itself is left untouched")

	output.Reset()
	require.NoError(t, initialize(InitCmd, nil))
	assert.Empty(t, output.String(), "init keeps the existing wallet")

	output.Reset()
	showKeyCmd.SetOut(&output)
	require.NoError(t, showKeyCmd.RunE(showKeyCmd, nil))
	assert.Equal(t, wallet, strings.TrimSpace(output.String()))

	encrypted, err := crypto.Encrypt(communities[0].EncryptionKey, []byte("50k"))
	require.NoError(t, err)
	output.Reset()
	decryptCmd.SetOut(&output)
	require.NoError(t, decryptCmd.RunE(decryptCmd, []string{hexutil.Encode(encrypted)}))
	assert.Equal(t, "50k", strings.TrimSpace(output.String()))
}
