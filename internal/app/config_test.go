package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versus/internal/app"
	"versus/internal/domain"
	"versus/internal/protocol/modp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versus.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_EmptyPathIsDefault(t *testing.T) {
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, app.DefaultConfig(), cfg)
	assert.Equal(t, modp.Default(), cfg.Session.Params)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
[session]
ready_timeout = "5s"
queue_limit = 128
base = "5"
prime = "0x17"

[network]
relay_url = "http://relay.example:8080/"
name = " alice "
peer = "bob"
poll_interval = "250ms"

[log]
level = "debug"
format = "json"
`)
	cfg, err := app.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Session.ReadyTimeout)
	assert.Equal(t, 128, cfg.Session.QueueLimit)
	assert.Equal(t, modp.Params{Base: 5, Prime: 23}, cfg.Session.Params)
	assert.Equal(t, "http://relay.example:8080", cfg.Network.RelayURL)
	assert.Equal(t, domain.Username("alice"), cfg.Network.Name)
	assert.Equal(t, domain.Username("bob"), cfg.Network.Peer)
	assert.Equal(t, 250*time.Millisecond, cfg.Network.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	// Keys not present keep their defaults.
	def := app.DefaultConfig()
	assert.Equal(t, def.Network.Listen, cfg.Network.Listen)
	assert.Equal(t, def.Session.OutboxSize, cfg.Session.OutboxSize)
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"bad duration":     "[session]\nready_timeout = \"soon\"\n",
		"negative timeout": "[session]\nready_timeout = \"-1s\"\n",
		"bad prime":        "[session]\nprime = \"nope\"\n",
		"degenerate group": "[session]\nbase = \"2\"\nprime = \"2\"\n",
		"unknown key":      "[session]\nretries = 3\n",
		"bad poll":         "[network]\npoll_interval = \"0s\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := app.LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	logger := logrus.New()

	require.NoError(t, app.ConfigureLogging(logger, app.LogConfig{Level: "warn", Format: "json"}))
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	require.NoError(t, app.ConfigureLogging(logger, app.LogConfig{Level: "debug"}))
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	assert.Error(t, app.ConfigureLogging(logger, app.LogConfig{Level: "loud"}))
	assert.Error(t, app.ConfigureLogging(logger, app.LogConfig{Level: "info", Format: "xml"}))
}
