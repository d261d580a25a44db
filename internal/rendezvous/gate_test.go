package rendezvous_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versus/internal/domain"
	"versus/internal/rendezvous"
)

type recorder struct {
	mu   sync.Mutex
	sent []domain.Message
}

func (r *recorder) Send(_ context.Context, m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func (r *recorder) Inbound() <-chan domain.Message { return nil }
func (r *recorder) Close() error                   { return nil }

func (r *recorder) count(kind domain.MessageKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.sent {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func TestGate_TimeoutSendsOneAbort(t *testing.T) {
	g := rendezvous.New(nil)
	w := &recorder{}

	start := time.Now()
	err := g.AwaitReady(context.Background(), 50*time.Millisecond, w)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, domain.ErrRendezvousTimeout)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, 1, w.count(domain.KindNotReady))
	assert.Equal(t, 1, w.count(domain.KindSessionAbort))
	assert.Equal(t, rendezvous.TimedOut, g.State())

	// Terminal: no second abort, and a late signal changes nothing.
	assert.ErrorIs(t, g.AwaitReady(context.Background(), time.Second, w), domain.ErrRendezvousTimeout)
	assert.Equal(t, 1, w.count(domain.KindSessionAbort))
	assert.False(t, g.Signal())
	assert.False(t, g.Ready())
}

func TestGate_SignalBeforeAwaitReturnsImmediately(t *testing.T) {
	g := rendezvous.New(nil)
	w := &recorder{}

	require.True(t, g.Signal())
	assert.False(t, g.Signal(), "only the first signal counts")

	start := time.Now()
	require.NoError(t, g.AwaitReady(context.Background(), 5*time.Second, w))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Zero(t, w.count(domain.KindNotReady))
	assert.Zero(t, w.count(domain.KindSessionAbort))
}

func TestGate_SignalFromAnotherGoroutine(t *testing.T) {
	g := rendezvous.New(nil)
	w := &recorder{}

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Signal()
	}()

	start := time.Now()
	require.NoError(t, g.AwaitReady(context.Background(), 5*time.Second, w))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, rendezvous.Signaled, g.State())
	assert.Equal(t, 1, w.count(domain.KindNotReady))
	assert.Zero(t, w.count(domain.KindSessionAbort))
}

func TestGate_SignalRacesWithAwait(t *testing.T) {
	for i := 0; i < 200; i++ {
		g := rendezvous.New(nil)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Signal()
		}()
		require.NoError(t, g.AwaitReady(context.Background(), 2*time.Second, &recorder{}))
		wg.Wait()
	}
}

func TestGate_ContextCancelled(t *testing.T) {
	g := rendezvous.New(nil)
	w := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := g.AwaitReady(ctx, 5*time.Second, w)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, rendezvous.Cancelled, g.State())
	assert.Zero(t, w.count(domain.KindSessionAbort), "cancellation is not a timeout")
}

func TestGate_InstancesAreIndependent(t *testing.T) {
	a, b := rendezvous.New(nil), rendezvous.New(nil)
	a.Signal()
	assert.True(t, a.Ready())
	assert.False(t, b.Ready())
}

// stalled is a transport whose Send blocks until its context ends.
type stalled struct{ recorder }

func (s *stalled) Send(ctx context.Context, m domain.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestGate_TimeoutHoldsWhenSendStalls(t *testing.T) {
	g := rendezvous.New(nil)

	start := time.Now()
	err := g.AwaitReady(context.Background(), 50*time.Millisecond, &stalled{})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, domain.ErrRendezvousTimeout)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, rendezvous.TimedOut, g.State())
}

func TestGate_SignalWhileNoticeStalls(t *testing.T) {
	g := rendezvous.New(nil)
	go func() {
		time.Sleep(10 * time.Millisecond)
		g.Signal()
	}()
	// The notice is abandoned at the deadline; the earlier signal still wins.
	assert.NoError(t, g.AwaitReady(context.Background(), 100*time.Millisecond, &stalled{}))
}
