package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ircd.local", cfg.Server.Name)
	assert.Equal(t, "ircd", cfg.Server.Network)
	assert.Equal(t, 6667, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:6667", cfg.GetListenAddress())
	assert.Equal(t, "127.0.0.1:8080", cfg.GetWebListenAddress())
	assert.Equal(t, "127.0.0.1:7070", cfg.GetMetricsListenAddress())
	assert.False(t, cfg.WebPortal.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadYAML(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", `
server:
  name: irc.example.com
  network: ExampleNet
  port: 6697
log:
  level: debug
web_portal:
  enabled: true
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.com", cfg.Server.Name)
	assert.Equal(t, "ExampleNet", cfg.Server.Network)
	assert.Equal(t, 6697, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.WebPortal.Enabled)
	assert.Equal(t, 9090, cfg.WebPortal.Port)
	// untouched fields keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, path, cfg.Source)
}

func TestLoadTOML(t *testing.T) {
	path := writeTempConfig(t, "config.toml", `
[server]
name = "irc.example.com"
network = "ExampleNet"

[metrics]
enabled = true
port = 9100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.com", cfg.Server.Name)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.GetMetricsListenAddress())
}

func TestLoadJSON(t *testing.T) {
	path := writeTempConfig(t, "config.json", `{
  "server": {"name": "irc.example.com", "network": "ExampleNet"},
  "log": {"level": "warn"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.com", cfg.Server.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEmptySourceUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Name, cfg.Server.Name)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IRCD_SERVER_NAME", "irc.env.example")
	t.Setenv("IRCD_PORT", "7000")
	t.Setenv("IRCD_METRICS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "irc.env.example", cfg.Server.Name)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", `
server:
  name: irc.file.example
`)
	t.Setenv("IRCD_SERVER_NAME", "irc.env.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.env.example", cfg.Server.Name)
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresName(t *testing.T) {
	cfg := Default()
	cfg.Server.Name = ""
	assert.Error(t, cfg.Validate())
}
