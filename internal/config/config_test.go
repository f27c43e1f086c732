package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEdge_Defaults(t *testing.T) {
	v := New()
	SetEdgeDefaults(v)

	cfg, err := LoadEdge(v)
	require.NoError(t, err)
	assert.Equal(t, "tillsync-edge.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.True(t, cfg.Online)
	assert.Zero(t, cfg.BatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadEdge_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.yaml")
	doc := `
node_id: till-3
tenant_id: acme
db_path: /var/lib/tillsync/edge.db
sync_interval: 1m
batch_size: 50
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	t.Setenv("TILLSYNC_ACCESS_TOKEN", "secret-token")
	t.Setenv("TILLSYNC_LOG_LEVEL", "warn")
	t.Setenv("TILLSYNC_ONLINE", "false")

	v := New()
	SetEdgeDefaults(v)
	require.NoError(t, ReadFile(v, path))

	cfg, err := LoadEdge(v)
	require.NoError(t, err)
	assert.Equal(t, "till-3", cfg.NodeID)
	assert.Equal(t, "acme", cfg.TenantID)
	assert.Equal(t, "/var/lib/tillsync/edge.db", cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, "secret-token", cfg.AccessToken)
	assert.False(t, cfg.Online)
	assert.Equal(t, "warn", cfg.Log.Level, "environment overrides the file")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestReadFile_Missing(t *testing.T) {
	v := New()
	require.NoError(t, ReadFile(v, ""))
	require.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadServer(t *testing.T) {
	t.Run("secret required", func(t *testing.T) {
		v := New()
		SetServerDefaults(v)
		_, err := LoadServer(v)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("TILLSYNC_JWT_SECRET", "0123456789abcdef0123")
		t.Setenv("TILLSYNC_TOKEN_TTL", "720h")

		v := New()
		SetServerDefaults(v)
		cfg, err := LoadServer(v)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
		assert.Equal(t, 600, cfg.RateLimit)
		assert.Equal(t, time.Minute, cfg.RateWindow)
	})
}

func TestValidate(t *testing.T) {
	valid := func() EdgeConfig {
		return EdgeConfig{
			DBPath:       "edge.db",
			ServerURL:    "http://localhost:8080",
			SyncInterval: time.Second,
			Log:          LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*EdgeConfig)
	}{
		{name: "no db path", mutate: func(c *EdgeConfig) { c.DBPath = "" }},
		{name: "no server url", mutate: func(c *EdgeConfig) { c.ServerURL = "" }},
		{name: "zero interval", mutate: func(c *EdgeConfig) { c.SyncInterval = 0 }},
		{name: "negative batch", mutate: func(c *EdgeConfig) { c.BatchSize = -1 }},
		{name: "bad level", mutate: func(c *EdgeConfig) { c.Log.Level = "loud" }},
		{name: "bad format", mutate: func(c *EdgeConfig) { c.Log.Format = "xml" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
