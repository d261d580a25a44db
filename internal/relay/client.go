package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
)

const (
	// DefaultPollInterval is how often the client checks its mailbox.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultBatch caps envelopes fetched per poll.
	DefaultBatch = 64
)

// ClientConfig configures a mailbox Client.
type ClientConfig struct {
	// Base is the relay URL, e.g. "http://localhost:8080".
	Base string
	// Me and Peer name the two mailboxes. Envelopes from anyone but Peer are dropped.
	Me, Peer     domain.Username
	PollInterval time.Duration
	Batch        int
	HTTP         *http.Client
	Logger       *logrus.Entry
}

// Client is a domain.Transport that exchanges messages through relay mailboxes.
type Client struct {
	base     string
	me, peer domain.Username
	http     *http.Client
	interval time.Duration
	batch    int
	log      *logrus.Entry

	// unacked counts envelopes at the head of our mailbox that were already
	// delivered or dropped. Only pollLoop touches it.
	unacked int

	inbound chan domain.Message
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

var _ domain.Transport = (*Client)(nil)

// NewClient starts polling cfg.Me's mailbox and returns the transport.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Base == "" || cfg.Me == "" || cfg.Peer == "" {
		return nil, fmt.Errorf("relay client: base, me and peer are required")
	}
	if cfg.Me == cfg.Peer {
		return nil, fmt.Errorf("relay client: me and peer must differ")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultBatch
	}
	if cfg.HTTP == nil {
		cfg.HTTP = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.WithField("component", "relay-client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		base:     cfg.Base,
		me:       cfg.Me,
		peer:     cfg.Peer,
		http:     cfg.HTTP,
		interval: cfg.PollInterval,
		batch:    cfg.Batch,
		log:      cfg.Logger.WithFields(logrus.Fields{"me": cfg.Me, "peer": cfg.Peer}),
		inbound:  make(chan domain.Message, cfg.Batch),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.wg.Add(1)
	go c.pollLoop(ctx)
	return c, nil
}

// Send posts msg to the peer's mailbox.
func (c *Client) Send(ctx context.Context, msg domain.Message) error {
	if c.ctx.Err() != nil {
		return domain.ErrTransportClosed
	}
	env := domain.Envelope{
		From:      c.me,
		To:        c.peer,
		Message:   msg,
		Timestamp: time.Now().Unix(),
	}
	return c.post(ctx, "/msg/"+url.PathEscape(string(c.peer)), env)
}

// Inbound delivers messages fetched from our mailbox. It is closed by Close.
func (c *Client) Inbound() <-chan domain.Message { return c.inbound }

// Close stops polling and closes Inbound.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
		close(c.inbound)
	})
	return nil
}

func (c *Client) pollLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := c.pollOnce(ctx); err != nil && ctx.Err() == nil {
			c.log.WithFields(logrus.Fields{
				"function": "pollLoop",
				"error":    err.Error(),
			}).Warn("Mailbox poll failed")
		}
	}
}

// pollOnce acknowledges anything left over from a failed ack, then fetches
// one batch, delivers it and acknowledges it. An envelope is never delivered
// twice: a failed ack is retried before the next fetch.
func (c *Client) pollOnce(ctx context.Context) error {
	if c.unacked > 0 {
		if err := c.ack(ctx, c.unacked); err != nil {
			return fmt.Errorf("retry ack of %d: %w", c.unacked, err)
		}
		c.unacked = 0
	}

	envs, err := c.fetch(ctx)
	if err != nil || len(envs) == 0 {
		return err
	}
	for _, env := range envs {
		if env.From != c.peer {
			c.log.WithFields(logrus.Fields{
				"function": "pollOnce",
				"from":     env.From,
				"kind":     env.Message.Kind.String(),
			}).Warn("Dropping envelope from unexpected sender")
			c.unacked++
			continue
		}
		select {
		case c.inbound <- env.Message:
			c.unacked++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := c.ack(ctx, c.unacked); err != nil {
		return err
	}
	c.unacked = 0
	return nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Envelope, error) {
	path := "/msg/" + url.PathEscape(string(c.me)) + "?limit=" + strconv.Itoa(c.batch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	var envs []domain.Envelope
	return envs, json.NewDecoder(resp.Body).Decode(&envs)
}

func (c *Client) ack(ctx context.Context, count int) error {
	return c.post(ctx, "/msg/"+url.PathEscape(string(c.me))+"/ack", ackRequest{Count: count})
}

func (c *Client) post(ctx context.Context, path string, in any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay post %s: %s", path, resp.Status)
	}
	return nil
}
