package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/gmboard/internal/domain/campaign"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GMBOARD_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
	require.Equal(t, campaign.ClampRange, cfg.ClampPolicy())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmboard.yaml")
	data := []byte(`
server:
  port: 9090
db:
  path: /tmp/board.db
sync:
  poll_interval: 1s
  max_backoff: 10s
stats:
  clamp: none
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("GMBOARD_CONFIG_PATH", path)
	t.Setenv("GMBOARD_SERVER_PORT", "7070")
	t.Setenv("GMBOARD_TRANSPORT_MODE", "stdio")
	t.Setenv("GMBOARD_SYNC_SUBSCRIBER_QUEUE", "8")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "/tmp/board.db", cfg.DB.Path)
	require.Equal(t, ModeStdio, cfg.Transport.Mode)
	require.Equal(t, time.Second, cfg.Sync.PollInterval)
	require.Equal(t, 10*time.Second, cfg.Sync.MaxBackoff)
	require.Equal(t, 10*time.Second, cfg.Sync.RequestTimeout)
	require.Equal(t, 8, cfg.Sync.SubscriberQueue)
	require.Equal(t, campaign.ClampNone, cfg.ClampPolicy())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("GMBOARD_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		require.ErrorContains(t, err, "read config file")
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("GMBOARD_CONFIG_PATH", "")
		t.Setenv("GMBOARD_SERVER_PORT", "eighty")
		_, err := Load()
		require.ErrorContains(t, err, "parse env")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("GMBOARD_CONFIG_PATH", "")
		t.Setenv("GMBOARD_TRANSPORT_MODE", "carrier-pigeon")
		t.Setenv("GMBOARD_STATS_CLAMP", "sometimes")
		_, err := Load()
		require.ErrorContains(t, err, "transport.mode")
		require.ErrorContains(t, err, "stats.clamp")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Sync.MaxBackoff = time.Second
	cfg.Sync.SubscriberQueue = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.ErrorContains(t, err, "max_backoff")
	require.ErrorContains(t, err, "subscriber_queue")
	require.ErrorContains(t, err, "log.level")
	require.NoError(t, Default().Validate())
}
