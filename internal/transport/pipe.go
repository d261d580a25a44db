package transport

import (
	"context"
	"sync"

	"versus/internal/domain"
)

// DefaultPipeBuffer is the per-direction buffer of a Pipe.
const DefaultPipeBuffer = 64

type pipe struct {
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
	ab, ba chan domain.Message
}

func (p *pipe) close() {
	p.once.Do(func() {
		close(p.done) // release blocked senders before taking the write lock
		p.mu.Lock()
		p.closed = true
		close(p.ab)
		close(p.ba)
		p.mu.Unlock()
	})
}

// PipeEnd is one side of an in-memory transport pair.
type PipeEnd struct {
	p   *pipe
	in  chan domain.Message
	out chan domain.Message
}

// Pipe returns two connected ends. buffer <= 0 selects DefaultPipeBuffer.
func Pipe(buffer int) (*PipeEnd, *PipeEnd) {
	if buffer <= 0 {
		buffer = DefaultPipeBuffer
	}
	p := &pipe{
		done: make(chan struct{}),
		ab:   make(chan domain.Message, buffer),
		ba:   make(chan domain.Message, buffer),
	}
	return &PipeEnd{p: p, in: p.ba, out: p.ab}, &PipeEnd{p: p, in: p.ab, out: p.ba}
}

// Send delivers a copy of msg to the other end, blocking while its buffer is full.
func (e *PipeEnd) Send(ctx context.Context, msg domain.Message) error {
	e.p.mu.RLock()
	defer e.p.mu.RUnlock()
	if e.p.closed {
		return domain.ErrTransportClosed
	}
	if msg.Payload != nil {
		msg.Payload = append([]byte(nil), msg.Payload...)
	}
	select {
	case e.out <- msg:
		return nil
	case <-e.p.done:
		return domain.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inbound returns messages sent by the other end.
func (e *PipeEnd) Inbound() <-chan domain.Message { return e.in }

// Close closes both ends.
func (e *PipeEnd) Close() error {
	e.p.close()
	return nil
}

var _ domain.Transport = (*PipeEnd)(nil)
