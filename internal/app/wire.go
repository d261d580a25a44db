package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
	"versus/internal/relay"
	"versus/internal/services/session"
	"versus/internal/transport"
)

// Mode selects how the transport reaches the opponent.
type Mode int

const (
	// ModeHost listens for one direct TCP connection.
	ModeHost Mode = iota
	// ModeJoin dials a host directly.
	ModeJoin
	// ModeMailbox exchanges messages through an HTTP relay.
	ModeMailbox
)

func (m Mode) String() string {
	switch m {
	case ModeHost:
		return "host"
	case ModeJoin:
		return "join"
	case ModeMailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

// Wire bundles the transport and session for the CLI.
type Wire struct {
	Transport domain.Transport
	Session   *session.Session
	HTTP      *http.Client
}

// NewWire constructs the dependency graph from cfg. In host mode it blocks
// until the opponent connects or ctx ends.
func NewWire(ctx context.Context, cfg Config, mode Mode, logger *logrus.Logger) (*Wire, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("mode", mode.String())

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	t, err := openTransport(ctx, cfg.Network, mode, httpClient, log)
	if err != nil {
		return nil, err
	}

	s, err := session.New(t, session.Config{
		Params:       cfg.Session.Params,
		ReadyTimeout: cfg.Session.ReadyTimeout,
		QueueLimit:   cfg.Session.QueueLimit,
		OutboxSize:   cfg.Session.OutboxSize,
		Logger:       log.WithField("component", "session"),
	})
	if err != nil {
		_ = t.Close()
		return nil, err
	}

	return &Wire{Transport: t, Session: s, HTTP: httpClient}, nil
}

func openTransport(
	ctx context.Context,
	cfg NetworkConfig,
	mode Mode,
	httpClient *http.Client,
	log *logrus.Entry,
) (domain.Transport, error) {
	switch mode {
	case ModeHost:
		ln, err := transport.Listen(ctx, cfg.Listen, log.WithField("component", "stream"))
		if err != nil {
			return nil, err
		}
		log.WithField("addr", ln.Addr().String()).Info("Waiting for opponent")
		st, err := ln.Accept(ctx)
		if err != nil {
			return nil, err
		}
		return st, nil

	case ModeJoin:
		if cfg.Connect == "" {
			return nil, errors.New("join: no host address configured")
		}
		st, err := transport.Dial(ctx, cfg.Connect, log.WithField("component", "stream"))
		if err != nil {
			return nil, err
		}
		return st, nil

	case ModeMailbox:
		c, err := relay.NewClient(relay.ClientConfig{
			Base:         cfg.RelayURL,
			Me:           cfg.Name,
			Peer:         cfg.Peer,
			PollInterval: cfg.PollInterval,
			HTTP:         httpClient,
			Logger:       log.WithField("component", "relay-client"),
		})
		if err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown mode %d", mode)
	}
}
