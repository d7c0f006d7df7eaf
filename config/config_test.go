package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultBroadcastPort, cfg.BroadcastPort)
	assert.Equal(t, DefaultNodeName, cfg.NodeName)
	assert.Equal(t, DefaultVendorName, cfg.VendorName)
	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.Equal(t, DefaultOptInInterval, cfg.OptInInterval)
	assert.Equal(t, DefaultPeerIdleThreshold, cfg.PeerIdleThreshold)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		BroadcastPort: 50000,
		NodeName:      "MYNODE",
		OptInInterval: 250 * time.Millisecond,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 50000, cfg.BroadcastPort)
	assert.Equal(t, "MYNODE", cfg.NodeName)
	assert.Equal(t, 250*time.Millisecond, cfg.OptInInterval)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(c *Config) {}, ""},
		{"port too large", func(c *Config) { c.BroadcastPort = 70000 }, "broadcast port"},
		{"node name too long", func(c *Config) { c.NodeName = "WAYTOOLONGNAME" }, "node_name"},
		{"node name not printable", func(c *Config) { c.NodeName = "a\x01b" }, "node_name"},
		{"vendor too long", func(c *Config) { c.VendorName = "an overly long vendor name" }, "vendor_name"},
		{"app too long", func(c *Config) { c.AppName = "an overly long application" }, "app_name"},
		{"negative interval", func(c *Config) { c.OptInInterval = -time.Second }, "opt_in_interval"},
		{"negative threshold", func(c *Config) { c.PeerIdleThreshold = -1 }, "peer_idle_threshold"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "request_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestIdleTimeout(t *testing.T) {
	cfg := &Config{OptInInterval: time.Second, PeerIdleThreshold: 5}
	assert.Equal(t, 5*time.Second, cfg.IdleTimeout())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tcnet.yaml")
	content := []byte(`
node_name: DECKMON
vendor_name: acme
opt_in_interval: 500ms
peer_idle_threshold: 3
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DECKMON", cfg.NodeName)
	assert.Equal(t, "acme", cfg.VendorName)
	assert.Equal(t, 500*time.Millisecond, cfg.OptInInterval)
	assert.Equal(t, 3, cfg.PeerIdleThreshold)
	// Defaults fill the rest.
	assert.Equal(t, DefaultBroadcastPort, cfg.BroadcastPort)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tcnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_name: FARTOOLONGFORTHEFIELD\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node_name")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
