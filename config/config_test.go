package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Poll.Attempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, uint64(10), cfg.Wallet.Network)
	assert.Equal(t, home+"/config/wallet.key", cfg.Path(cfg.Wallet.KeyFile))
	assert.Equal(t, "/tmp/key", cfg.Path("/tmp/key"))
}

func TestWriteAndLoad(t *testing.T) {
	home := t.TempDir()
	cfg := Default(home)
	cfg.Poll.Attempts = 20
	cfg.Poll.Interval = 250 * time.Millisecond
	cfg.Indexer.IndexDelay = 0
	cfg.Wallet.Network = 42220
	require.NoError(t, cfg.Write())

	loaded, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverride(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, Default(home).Write())
	t.Setenv("GAPNODE_POLL_ATTEMPTS", "3")
	t.Setenv("GAPNODE_INDEXER_URL", "http://indexer.local")

	cfg, err := Load(home)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Poll.Attempts)
	assert.Equal(t, "http://indexer.local", cfg.Indexer.URL)
}

func TestValidateBasic(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Wallet.Network = 1
	assert.Error(t, cfg.ValidateBasic())

	cfg = Default(t.TempDir())
	cfg.Poll.Attempts = 0
	assert.Error(t, cfg.ValidateBasic())

	t.Setenv("GAPNODE_POLL_INTERVAL", "-1s")
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	var output bytes.Buffer
	cfg := Default(t.TempDir())
	cfg.LogLevel = "wizard:debug,*:error"
	logger, err := cfg.Logger(&output)
	require.NoError(t, err)

	logger.With("module", "poller").Info("hidden")
	logger.With("module", "wizard").Debug("shown")
	assert.NotContains(t, output.String(), "hidden")
	assert.Contains(t, output.String(), "shown")

	cfg.LogLevel = "wizard:loud"
	_, err = cfg.Logger(&output)
	assert.Error(t, err)
}
