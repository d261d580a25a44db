package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versus/internal/domain"
	"versus/internal/transport"
)

// streamPair connects a host and a joiner over loopback TCP.
func streamPair(t *testing.T) (host, joiner *transport.Stream) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ln, err := transport.Listen(ctx, "127.0.0.1:0", nil)
	require.NoError(t, err)

	accepted := make(chan *transport.Stream, 1)
	errc := make(chan error, 1)
	go func() {
		s, err := ln.Accept(ctx)
		if err != nil {
			errc <- err
			return
		}
		accepted <- s
	}()

	joiner, err = transport.Dial(ctx, ln.Addr().String(), nil)
	require.NoError(t, err)
	select {
	case host = <-accepted:
	case err := <-errc:
		t.Fatalf("accept: %v", err)
	}
	t.Cleanup(func() {
		_ = host.Close()
		_ = joiner.Close()
	})
	return host, joiner
}

func TestStream_RoundTripsMessages(t *testing.T) {
	ctx := context.Background()
	host, joiner := streamPair(t)

	sent := []domain.Message{
		{Kind: domain.KindKeyExchange, Value: 0xFFFF_FFFF_FFFF_FFC4},
		{Kind: domain.KindChatOrUpdate, Seq: 7, Payload: []byte{0, 1, 2, 255}},
		{Kind: domain.KindNotReady},
		{Kind: domain.KindSessionAbort, Reason: "timed out"},
	}
	for _, m := range sent {
		require.NoError(t, joiner.Send(ctx, m))
	}
	for _, want := range sent {
		assert.Equal(t, want, recv(t, host))
	}

	require.NoError(t, host.Send(ctx, domain.Message{Kind: domain.KindReadySignal}))
	assert.Equal(t, domain.KindReadySignal, recv(t, joiner).Kind)
}

func TestStream_CloseEndsPeerInbound(t *testing.T) {
	host, joiner := streamPair(t)
	require.NoError(t, joiner.Close())

	select {
	case _, ok := <-host.Inbound():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("host inbound not closed after peer hung up")
	}
	assert.ErrorIs(t, joiner.Send(context.Background(), domain.Message{Kind: domain.KindNotReady}), domain.ErrTransportClosed)
}

func TestListener_AcceptHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := transport.Listen(ctx, "127.0.0.1:0", nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = ln.Accept(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_OversizePayloadDisconnects(t *testing.T) {
	host, joiner := streamPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	big := make([]byte, transport.MaxPayload+1)
	require.NoError(t, joiner.Send(ctx, domain.Message{Kind: domain.KindChatOrUpdate, Payload: big}))

	select {
	case m, ok := <-host.Inbound():
		assert.False(t, ok, "oversize message delivered: kind %s, %d bytes", m.Kind, len(m.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("host kept the connection open")
	}
	assert.ErrorIs(t, host.Send(ctx, domain.Message{Kind: domain.KindNotReady}), domain.ErrTransportClosed)
}

func TestStream_PayloadAtLimitIsDelivered(t *testing.T) {
	host, joiner := streamPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, joiner.Send(ctx, domain.Message{Kind: domain.KindChatOrUpdate, Payload: make([]byte, transport.MaxPayload)}))
	assert.Len(t, recv(t, host).Payload, transport.MaxPayload)
}
