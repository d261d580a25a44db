package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
)

// State is where a Gate is in its lifecycle.
type State int

const (
	Waiting State = iota
	Signaled
	TimedOut
	Cancelled
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Signaled:
		return "signaled"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// abortSendTimeout bounds the SessionAbort notice sent after a timeout.
const abortSendTimeout = 250 * time.Millisecond

// Gate blocks one waiter until the opponent is ready.
type Gate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	ready   bool
	expired bool
	state   State
	log     *logrus.Entry
}

// New returns a Gate in the Waiting state. A nil log uses the standard logger.
func New(log *logrus.Entry) *Gate {
	if log == nil {
		log = logrus.WithField("component", "rendezvous")
	}
	g := &Gate{log: log}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Signal marks the opponent ready and wakes the waiter. Only the first call
// has an effect; it reports whether this call was the one that did. A gate
// that already timed out stays timed out.
func (g *Gate) Signal() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready || g.state == TimedOut {
		return false
	}
	g.ready = true
	g.state = Signaled
	g.cond.Broadcast()
	return true
}

// Ready reports whether Signal has happened.
func (g *Gate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// AwaitReady sends a NotReady notice over t and blocks until Signal, the
// timeout, or ctx ends. The notice shares the timeout, so a stalled transport
// cannot hold the caller past it. On timeout exactly one SessionAbort is sent and
// domain.ErrRendezvousTimeout is returned. It returns nil at once, without
// any notice, when the gate was already signaled.
func (g *Gate) AwaitReady(ctx context.Context, timeout time.Duration, t domain.Transport) error {
	g.mu.Lock()
	switch g.state {
	case Signaled:
		g.mu.Unlock()
		return nil
	case TimedOut:
		g.mu.Unlock()
		return domain.ErrRendezvousTimeout
	}
	g.state = Waiting
	g.expired = false
	g.mu.Unlock()

	log := g.log.WithFields(logrus.Fields{"function": "AwaitReady", "timeout": timeout.String()})
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(time.Until(deadline), func() {
		g.mu.Lock()
		g.expired = true
		g.cond.Broadcast()
		g.mu.Unlock()
	})
	defer timer.Stop()

	sendCtx, cancel := context.WithDeadline(ctx, deadline)
	err := t.Send(sendCtx, domain.Message{Kind: domain.KindNotReady})
	cancel()
	if err != nil {
		log.WithField("error", err.Error()).Warn("NotReady notice not delivered")
	}

	stop := context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.cond.Broadcast()
		g.mu.Unlock()
	})
	defer stop()

	g.mu.Lock()
	for !g.ready && !g.expired && ctx.Err() == nil {
		g.cond.Wait()
	}
	switch {
	case g.ready:
		g.mu.Unlock()
		log.Debug("Opponent ready")
		return nil
	case g.expired:
		g.state = TimedOut
		g.mu.Unlock()
	default:
		g.state = Cancelled
		g.mu.Unlock()
		return ctx.Err()
	}

	log.Warn("Opponent not ready in time; aborting session")
	abort := domain.Message{Kind: domain.KindSessionAbort, Reason: domain.ErrRendezvousTimeout.Error()}
	abortCtx, cancelAbort := context.WithTimeout(context.WithoutCancel(ctx), abortSendTimeout)
	defer cancelAbort()
	if err := t.Send(abortCtx, abort); err != nil {
		log.WithField("error", err.Error()).Warn("SessionAbort notice not delivered")
	}
	return domain.ErrRendezvousTimeout
}
