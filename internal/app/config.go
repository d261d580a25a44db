package app

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"versus/internal/domain"
	"versus/internal/protocol/modp"
	"versus/internal/relay"
	"versus/internal/services/session"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Session SessionConfig
	Network NetworkConfig
	Log     LogConfig
	HTTP    *http.Client // optional; defaults to http.DefaultClient
}

// SessionConfig is passed to session.New as plain values.
type SessionConfig struct {
	Params       modp.Params
	ReadyTimeout time.Duration
	QueueLimit   int
	OutboxSize   int
}

// NetworkConfig selects and configures the transport.
type NetworkConfig struct {
	Listen       string          // host mode, e.g. ":7700"
	Connect      string          // join mode, e.g. "203.0.113.7:7700"
	RelayURL     string          // mailbox mode, e.g. http://127.0.0.1:8080
	Name         domain.Username // our mailbox
	Peer         domain.Username // opponent's mailbox
	PollInterval time.Duration
}

// LogConfig configures the process-wide logrus logger.
type LogConfig struct {
	Level  string // logrus level name
	Format string // "text" or "json"
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			Params:       modp.Default(),
			ReadyTimeout: session.DefaultReadyTimeout,
			OutboxSize:   session.DefaultOutboxSize,
		},
		Network: NetworkConfig{
			Listen:       ":7700",
			RelayURL:     "http://127.0.0.1:8080",
			PollInterval: relay.DefaultPollInterval,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

type fileConfig struct {
	Session struct {
		ReadyTimeout string `toml:"ready_timeout"`
		QueueLimit   int    `toml:"queue_limit"`
		OutboxSize   int    `toml:"outbox_size"`
		Base         string `toml:"base"`
		Prime        string `toml:"prime"`
	} `toml:"session"`
	Network struct {
		Listen       string `toml:"listen"`
		Connect      string `toml:"connect"`
		RelayURL     string `toml:"relay_url"`
		Name         string `toml:"name"`
		Peer         string `toml:"peer"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"network"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// LoadConfig returns DefaultConfig overlaid with the keys set in the TOML
// file at path. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("session", "ready_timeout") {
		d, err := parsePositiveDuration(raw.Session.ReadyTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse session.ready_timeout: %w", err)
		}
		cfg.Session.ReadyTimeout = d
	}
	if meta.IsDefined("session", "queue_limit") {
		cfg.Session.QueueLimit = raw.Session.QueueLimit
	}
	if meta.IsDefined("session", "outbox_size") {
		cfg.Session.OutboxSize = raw.Session.OutboxSize
	}
	if meta.IsDefined("session", "base") {
		v, err := strconv.ParseUint(strings.TrimSpace(raw.Session.Base), 0, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse session.base: %w", err)
		}
		cfg.Session.Params.Base = v
	}
	if meta.IsDefined("session", "prime") {
		v, err := strconv.ParseUint(strings.TrimSpace(raw.Session.Prime), 0, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse session.prime: %w", err)
		}
		cfg.Session.Params.Prime = v
	}
	if err := cfg.Session.Params.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("network", "listen") {
		cfg.Network.Listen = strings.TrimSpace(raw.Network.Listen)
	}
	if meta.IsDefined("network", "connect") {
		cfg.Network.Connect = strings.TrimSpace(raw.Network.Connect)
	}
	if meta.IsDefined("network", "relay_url") {
		cfg.Network.RelayURL = strings.TrimRight(strings.TrimSpace(raw.Network.RelayURL), "/")
	}
	if meta.IsDefined("network", "name") {
		cfg.Network.Name = domain.Username(strings.TrimSpace(raw.Network.Name))
	}
	if meta.IsDefined("network", "peer") {
		cfg.Network.Peer = domain.Username(strings.TrimSpace(raw.Network.Peer))
	}
	if meta.IsDefined("network", "poll_interval") {
		d, err := parsePositiveDuration(raw.Network.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse network.poll_interval: %w", err)
		}
		cfg.Network.PollInterval = d
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	return cfg, nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
