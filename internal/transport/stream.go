package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/sirupsen/logrus"

	"versus/internal/domain"
)

// MaxPayload bounds the payload of a received Message. A peer that exceeds
// it is disconnected.
const MaxPayload = 1 << 20

var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{MaxNestedLevels: 8}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Stream carries Messages over a net.Conn, one CBOR item each.
type Stream struct {
	conn    net.Conn
	wmu     sync.Mutex
	enc     *cbor.Encoder
	inbound chan domain.Message
	done    chan struct{}
	once    sync.Once
	log     *logrus.Entry
}

// NewStream wraps conn and starts its reader goroutine.
func NewStream(conn net.Conn, log *logrus.Entry) *Stream {
	if log == nil {
		log = logrus.WithField("component", "transport")
	}
	s := &Stream{
		conn:    conn,
		enc:     cbor.NewEncoder(conn),
		inbound: make(chan domain.Message, DefaultPipeBuffer),
		done:    make(chan struct{}),
		log:     log.WithField("remote", conn.RemoteAddr().String()),
	}
	go s.readLoop()
	return s
}

// Dial connects to a hosting peer.
func Dial(ctx context.Context, addr string, log *logrus.Entry) (*Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewStream(conn, log), nil
}

// Listener accepts exactly one peer connection.
type Listener struct {
	ln  net.Listener
	log *logrus.Entry
}

// Listen binds addr for a single peer.
func Listen(ctx context.Context, addr string, log *logrus.Entry) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Listener{ln: ln, log: log}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept waits for the peer, then closes the listener. ctx ending aborts the wait.
func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	stop := context.AfterFunc(ctx, func() { _ = l.ln.Close() })
	defer stop()
	defer l.ln.Close()

	conn, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	return NewStream(conn, l.log), nil
}

// Send encodes msg onto the connection. A ctx deadline becomes the write deadline.
func (s *Stream) Send(ctx context.Context, msg domain.Message) error {
	select {
	case <-s.done:
		return domain.ErrTransportClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	deadline, _ := ctx.Deadline()
	_ = s.conn.SetWriteDeadline(deadline)
	if err := s.enc.Encode(msg); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return domain.ErrTransportClosed
		}
		return fmt.Errorf("send %s: %w", msg.Kind, err)
	}
	return nil
}

// Inbound returns decoded messages; it is closed when the connection ends.
func (s *Stream) Inbound() <-chan domain.Message { return s.inbound }

// Close closes the connection. The reader goroutine then closes Inbound.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) readLoop() {
	defer close(s.inbound)
	dec := decMode.NewDecoder(s.conn)
	for {
		var msg domain.Message
		if err := dec.Decode(&msg); err != nil {
			s.logReadError(err)
			return
		}
		if len(msg.Payload) > MaxPayload {
			s.log.WithFields(logrus.Fields{
				"function": "readLoop",
				"kind":     msg.Kind.String(),
				"size":     len(msg.Payload),
			}).Warn("Oversize payload; closing connection")
			_ = s.Close()
			return
		}
		select {
		case s.inbound <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *Stream) logReadError(err error) {
	select {
	case <-s.done:
		return
	default:
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		s.log.WithField("function", "readLoop").Info("Peer closed the connection")
		return
	}
	s.log.WithFields(logrus.Fields{
		"function": "readLoop",
		"error":    err.Error(),
	}).Warn("Stream read failed")
}

var _ domain.Transport = (*Stream)(nil)
