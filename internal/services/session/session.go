package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"versus/internal/crypto"
	"versus/internal/domain"
	"versus/internal/protocol/cipher"
	"versus/internal/protocol/keyexchange"
	"versus/internal/protocol/modp"
	"versus/internal/queue"
	"versus/internal/rendezvous"
)

const (
	// DefaultReadyTimeout bounds AwaitOpponent.
	DefaultReadyTimeout = 30 * time.Second
	// DefaultOutboxSize is how many updates Send may buffer ahead of Run.
	DefaultOutboxSize = 64

	abortSendTimeout = 2 * time.Second
	reasonClosed     = "closed"
)

// Config holds plain-value settings for a Session. Zero values select defaults.
type Config struct {
	Params       modp.Params
	ReadyTimeout time.Duration
	QueueLimit   int
	OutboxSize   int
	Nonce        keyexchange.NonceSource
	Logger       *logrus.Entry
}

// Session is one live session between this process and a single peer.
type Session struct {
	t      domain.Transport
	cfg    Config
	kx     *keyexchange.Exchange
	gate   *rendezvous.Gate
	queue  *queue.Queue[domain.Update]
	outbox chan domain.Update
	log    *logrus.Entry

	established chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
	loaded      atomic.Bool

	mu          sync.Mutex
	cipher      *cipher.Cipher
	fingerprint domain.Fingerprint
	err         error
}

// New builds a Session over t. Nothing is sent until Start or Run.
func New(t domain.Transport, cfg Config) (*Session, error) {
	if t == nil {
		return nil, errors.New("session: nil transport")
	}
	if cfg.Params == (modp.Params{}) {
		cfg.Params = modp.Default()
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = DefaultOutboxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.WithField("component", "session")
	}

	kxOpts := []keyexchange.Option{
		keyexchange.WithParams(cfg.Params),
		keyexchange.WithLogger(cfg.Logger.WithField("component", "keyexchange")),
	}
	if cfg.Nonce != nil {
		kxOpts = append(kxOpts, keyexchange.WithNonceSource(cfg.Nonce))
	}
	kx, err := keyexchange.New(kxOpts...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Session{
		t:    t,
		cfg:  cfg,
		kx:   kx,
		gate: rendezvous.New(cfg.Logger.WithField("component", "rendezvous")),
		queue: queue.New[domain.Update](
			queue.WithLimit(cfg.QueueLimit),
			queue.WithLogger(cfg.Logger.WithField("component", "queue")),
		),
		outbox:      make(chan domain.Update, cfg.OutboxSize),
		log:         cfg.Logger,
		established: make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start sends our public value. It is a no-op when Run already answered a
// peer key that arrived first.
func (s *Session) Start(ctx context.Context) error {
	err := s.kx.SendLocalKey(ctx, s.t)
	if errors.Is(err, domain.ErrInvalidState) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// Run processes inbound messages and queued outbound updates until the session
// ends. It returns the cause, which is also available from Err.
func (s *Session) Run(ctx context.Context) error {
	log := s.log.WithField("function", "Run")
	log.Debug("Network loop started")
	defer log.Debug("Network loop stopped")

	for {
		select {
		case <-s.done:
			return s.Err()

		case <-ctx.Done():
			s.teardown(ctx, fmt.Errorf("%w: %w", domain.ErrSessionClosed, ctx.Err()), reasonClosed)
			return s.Err()

		case msg, ok := <-s.t.Inbound():
			if !ok {
				s.teardown(ctx, domain.ErrTransportClosed, "")
				return s.Err()
			}
			if err := s.dispatch(ctx, msg); err != nil {
				s.fail(ctx, err)
				return s.Err()
			}

		case u := <-s.outbox:
			if err := s.sendUpdate(ctx, u); err != nil {
				s.fail(ctx, err)
				return s.Err()
			}
		}
	}
}

// Established is closed once the shared secret and cipher are ready.
func (s *Session) Established() <-chan struct{} { return s.established }

// WaitEstablished blocks until the key exchange completes or the session ends.
func (s *Session) WaitEstablished(ctx context.Context) error {
	select {
	case <-s.established:
		return nil
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues u for encryption and delivery by Run. It never blocks: a full
// outbox returns domain.ErrAllocationFailure.
func (s *Session) Send(u domain.Update) error {
	select {
	case <-s.done:
		return s.Err()
	default:
	}
	select {
	case <-s.established:
	default:
		return domain.ErrNotEstablished
	}
	select {
	case s.outbox <- u:
		return nil
	default:
		return fmt.Errorf("outbox full: %w", domain.ErrAllocationFailure)
	}
}

// MarkLoaded records that this side finished loading and tells the peer.
func (s *Session) MarkLoaded(ctx context.Context) error {
	s.loaded.Store(true)
	if err := s.t.Send(ctx, domain.Message{Kind: domain.KindReadySignal}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}
	return nil
}

// AwaitOpponent blocks until the peer reports ready. On timeout the gate
// notifies the peer and the session is torn down with
// domain.ErrRendezvousTimeout. If the session ends while waiting, its cause is
// returned.
func (s *Session) AwaitOpponent(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		select {
		case <-s.done:
			cancel(s.Err())
		case <-ctx.Done():
		}
	}()

	err := s.gate.AwaitReady(ctx, s.cfg.ReadyTimeout, s.t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrRendezvousTimeout):
		s.teardown(ctx, err, "")
		return err
	case ctx.Err() != nil:
		return context.Cause(ctx)
	default:
		return err
	}
}

// Poll returns the oldest pending update, if any.
func (s *Session) Poll() (domain.Update, bool) { return s.queue.Pop() }

// Updates removes and returns every pending update in arrival order.
func (s *Session) Updates() []domain.Update {
	out := make([]domain.Update, 0, s.queue.Len())
	s.queue.Drain(0, func(u domain.Update) { out = append(out, u) })
	return out
}

// Close tells the peer we are leaving, closes the transport and wipes keys.
func (s *Session) Close(ctx context.Context) error {
	s.teardown(ctx, domain.ErrSessionClosed, reasonClosed)
	return nil
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns why the session ended, or nil while it is live.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fingerprint returns the transcript fingerprint once established.
func (s *Session) Fingerprint() domain.Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

// PublicValue returns our public value, or 0 before it is sent.
func (s *Session) PublicValue() domain.PublicValue { return s.kx.PublicValue() }

// fail tears down after a fatal error. The peer is told unless it is the one
// that ended the session or can no longer be reached.
func (s *Session) fail(ctx context.Context, err error) {
	reason := err.Error()
	if errors.Is(err, domain.ErrSessionAborted) || errors.Is(err, domain.ErrTransportClosed) {
		reason = ""
	}
	s.log.WithFields(logrus.Fields{
		"function": "fail",
		"error":    err.Error(),
	}).Error("Session failed")
	s.teardown(ctx, err, reason)
}

// teardown ends the session once. A non-empty reason is sent to the peer as a
// SessionAbort before the transport is closed.
func (s *Session) teardown(ctx context.Context, cause error, reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		c := s.cipher
		s.mu.Unlock()

		if reason != "" {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortSendTimeout)
			abort := domain.Message{Kind: domain.KindSessionAbort, Reason: reason}
			if err := s.t.Send(sendCtx, abort); err != nil {
				s.log.WithFields(logrus.Fields{
					"function": "teardown",
					"error":    err.Error(),
				}).Warn("SessionAbort notice not delivered")
			}
			cancel()
		}
		if err := s.t.Close(); err != nil {
			s.log.WithField("error", err.Error()).Warn("Transport close failed")
		}
		if c != nil {
			c.Wipe()
		}
		s.kx.Wipe()
		close(s.done)

		s.log.WithField("cause", cause.Error()).Info("Session ended")
	})
}

func (s *Session) establish(secret domain.SharedSecret, peer domain.PublicValue) error {
	local := s.kx.PublicValue()
	c, err := cipher.New(secret, local, peer, s.cfg.Params)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cipher = c
	s.fingerprint = crypto.TranscriptFingerprint(local, peer)
	fp := s.fingerprint
	s.mu.Unlock()
	close(s.established)

	s.log.WithField("fingerprint", fp.String()).Info("Session established")
	return nil
}
