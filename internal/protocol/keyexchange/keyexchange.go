package keyexchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
	"versus/internal/protocol/modp"
)

// FallbackNonce replaces the nonce when the entropy source fails.
const FallbackNonce uint64 = 0x5DEECE66D

// State is the key-exchange progress.
type State int

const (
	Uninitialized State = iota
	LocalKeySent
	SecretEstablished
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case LocalKeySent:
		return "local_key_sent"
	case SecretEstablished:
		return "secret_established"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NonceSource yields the raw nonce an exponent is derived from.
type NonceSource func() (uint64, error)

var clockOrigin = time.Now()

// ClockNonce mixes the monotonic time elapsed since process start into the
// wall clock nanoseconds.
func ClockNonce() (uint64, error) {
	elapsed := time.Since(clockOrigin)
	if elapsed <= 0 {
		return 0, errors.New("monotonic clock did not advance")
	}
	return uint64(time.Now().UnixNano()) ^ uint64(elapsed)<<17, nil
}

// Exchange is one session's key-exchange state.
type Exchange struct {
	mu     sync.Mutex
	params modp.Params
	nonce  NonceSource
	log    *logrus.Entry

	state    State
	exponent domain.Exponent
	public   domain.PublicValue
	peer     domain.PublicValue
	secret   domain.SharedSecret
}

// Option configures an Exchange.
type Option func(*Exchange)

// WithParams overrides the group parameters.
func WithParams(p modp.Params) Option { return func(x *Exchange) { x.params = p } }

// WithNonceSource replaces ClockNonce, e.g. with a fixed nonce in tests.
func WithNonceSource(src NonceSource) Option {
	return func(x *Exchange) {
		if src != nil {
			x.nonce = src
		}
	}
}

// WithLogger sets the log entry.
func WithLogger(l *logrus.Entry) Option {
	return func(x *Exchange) {
		if l != nil {
			x.log = l
		}
	}
}

// New returns an Exchange in the Uninitialized state.
func New(opts ...Option) (*Exchange, error) {
	x := &Exchange{
		params: modp.Default(),
		nonce:  ClockNonce,
		log:    logrus.WithField("component", "keyexchange"),
	}
	for _, opt := range opts {
		opt(x)
	}
	if err := x.params.Validate(); err != nil {
		return nil, err
	}
	return x, nil
}

// SendLocalKey generates the exponent, sends the public value and moves to
// LocalKeySent. It is only valid from Uninitialized.
func (x *Exchange) SendLocalKey(ctx context.Context, t domain.Transport) error {
	x.mu.Lock()
	if x.state != Uninitialized {
		st := x.state
		x.mu.Unlock()
		return fmt.Errorf("send local key in state %s: %w", st, domain.ErrInvalidState)
	}
	pv := x.claimLocked()
	x.mu.Unlock()

	return x.publish(ctx, t, pv)
}

// ReceivePeerKey derives the shared secret from the peer's public value. When
// the local key has not been sent yet it is sent first.
func (x *Exchange) ReceivePeerKey(
	ctx context.Context,
	peer domain.PublicValue,
	t domain.Transport,
) (domain.SharedSecret, error) {
	x.mu.Lock()
	if x.state == SecretEstablished {
		x.mu.Unlock()
		return 0, fmt.Errorf("receive peer key: %w", domain.ErrKeyAlreadyEstablished)
	}
	if err := x.checkRange(peer); err != nil {
		x.mu.Unlock()
		return 0, err
	}
	// Claim and generate under one lock so a concurrent SendLocalKey either
	// sends our value first or finds the state already taken.
	var pv domain.PublicValue
	mustSend := x.state == Uninitialized
	if mustSend {
		pv = x.claimLocked()
	}
	x.mu.Unlock()

	if mustSend {
		if err := x.publish(ctx, t, pv); err != nil {
			return 0, err
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.state != LocalKeySent {
		return 0, fmt.Errorf("receive peer key in state %s: %w", x.state, domain.ErrInvalidState)
	}
	if peer == x.public {
		return 0, fmt.Errorf("%w: peer echoed our public value", domain.ErrInvalidPeerValue)
	}

	x.peer = peer
	x.secret = domain.SharedSecret(modp.Exp(uint64(peer), uint64(x.exponent), x.params.Prime))
	x.state = SecretEstablished

	x.log.WithFields(logrus.Fields{
		"function": "ReceivePeerKey",
		"peer":     peer.String(),
	}).Info("Shared secret established")
	return x.secret, nil
}

// claimLocked generates the local key and moves to LocalKeySent.
func (x *Exchange) claimLocked() domain.PublicValue {
	pv := x.generateLocked()
	x.state = LocalKeySent
	return pv
}

// publish sends pv. On failure a still-pending claim is released so the
// exchange can be retried.
func (x *Exchange) publish(ctx context.Context, t domain.Transport, pv domain.PublicValue) error {
	if err := t.Send(ctx, domain.Message{Kind: domain.KindKeyExchange, Value: pv}); err != nil {
		x.mu.Lock()
		if x.state == LocalKeySent {
			x.state, x.exponent, x.public = Uninitialized, 0, 0
		}
		x.mu.Unlock()
		return fmt.Errorf("send local key: %w", err)
	}

	x.log.WithFields(logrus.Fields{
		"function": "SendLocalKey",
		"public":   pv.String(),
	}).Debug("Local public value sent")
	return nil
}

// State returns the current state.
func (x *Exchange) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

// Params returns the group parameters in use.
func (x *Exchange) Params() modp.Params { return x.params }

// PublicValue returns our public value, or 0 before it is generated.
func (x *Exchange) PublicValue() domain.PublicValue {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.public
}

// PeerValue returns the accepted peer value, or 0 before establishment.
func (x *Exchange) PeerValue() domain.PublicValue {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.peer
}

// Secret returns the shared secret, or 0 before establishment.
func (x *Exchange) Secret() domain.SharedSecret {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.secret
}

// Wipe discards the exponent and secret at session end.
func (x *Exchange) Wipe() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.exponent, x.secret = 0, 0
	x.state = Uninitialized
}

func (x *Exchange) generateLocked() domain.PublicValue {
	n, err := x.nonce()
	if err == nil && n == 0 {
		err = errors.New("nonce source returned zero")
	}
	if err != nil {
		x.log.WithFields(logrus.Fields{
			"function": "SendLocalKey",
			"error":    err.Error(),
		}).Warn(domain.ErrEntropyFailure.Error())
		n = FallbackNonce
	}
	e := n % x.params.Base
	if e == 0 {
		e = 1
	}
	x.exponent = domain.Exponent(e)
	x.public = domain.PublicValue(modp.Exp(x.params.Base, e, x.params.Prime))
	return x.public
}

// checkRange rejects values that cannot come from an honest peer.
func (x *Exchange) checkRange(v domain.PublicValue) error {
	if v <= 1 || uint64(v) >= x.params.Prime {
		return fmt.Errorf("%w: %s outside [2, %d)", domain.ErrInvalidPeerValue, v, x.params.Prime)
	}
	return nil
}
