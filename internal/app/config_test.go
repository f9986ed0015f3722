package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CURIO_CONFIG", "")
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 5*time.Second, cfg.Songlink.Timeout)
	require.Equal(t, "https://hub.pinata.cloud", cfg.FarcasterHub)
	require.True(t, cfg.Engagement.AllowSelfTip)
	require.Equal(t, int64(50), cfg.EngagementRules().TasteOverlapXP)
	require.Equal(t, 500, cfg.Engagement.OverlapScanLimit)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
cors_origins: ["https://curio.fm"]
songlink:
  timeout: 2s
engagement:
  share_xp: 20
  allow_self_tip: false
  overlap_scan_limit: 100
`), 0o600))

	t.Setenv("CURIO_CONFIG", path)
	t.Setenv("SHARE_XP", "15")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, []string{"https://curio.fm"}, cfg.CORSOrigins)
	require.Equal(t, 2*time.Second, cfg.Songlink.Timeout)
	require.Equal(t, int64(15), cfg.Engagement.ShareXP)
	require.False(t, cfg.Engagement.AllowSelfTip)
	require.Equal(t, 100, cfg.Engagement.OverlapScanLimit)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, "curio-events", cfg.Redis.Channel)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("CURIO_CONFIG", "")
	t.Setenv("OVERLAP_SCAN_LIMIT", "0")
	_, err := LoadConfig(nil)
	require.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "curio", Password: "p@ss", Name: "curio", SSLMode: "disable"}
	require.Equal(t, "postgres://curio:p%40ss@db:5432/curio?sslmode=disable", d.DSN())

	d.URL = "sqlite://curio.db"
	require.Equal(t, "sqlite://curio.db", d.DSN())

	require.Empty(t, DatabaseConfig{}.DSN())
}
