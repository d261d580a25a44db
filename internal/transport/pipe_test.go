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

func recv(t *testing.T, tr domain.Transport) domain.Message {
	t.Helper()
	select {
	case m, ok := <-tr.Inbound():
		require.True(t, ok, "inbound closed")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return domain.Message{}
	}
}

func TestPipe_DeliversBothWays(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pipe(0)
	defer a.Close()

	require.NoError(t, a.Send(ctx, domain.Message{Kind: domain.KindKeyExchange, Value: 42}))
	require.NoError(t, b.Send(ctx, domain.Message{Kind: domain.KindReadySignal}))

	assert.Equal(t, domain.PublicValue(42), recv(t, b).Value)
	assert.Equal(t, domain.KindReadySignal, recv(t, a).Kind)
}

func TestPipe_PayloadIsCopied(t *testing.T) {
	a, b := transport.Pipe(0)
	defer a.Close()

	payload := []byte("abc")
	require.NoError(t, a.Send(context.Background(), domain.Message{Kind: domain.KindChatOrUpdate, Payload: payload}))
	payload[0] = 'X'
	assert.Equal(t, []byte("abc"), recv(t, b).Payload)
}

func TestPipe_CloseDrainsThenEnds(t *testing.T) {
	ctx := context.Background()
	a, b := transport.Pipe(0)

	require.NoError(t, a.Send(ctx, domain.Message{Kind: domain.KindSessionAbort, Reason: "bye"}))
	require.NoError(t, a.Close())

	assert.Equal(t, "bye", recv(t, b).Reason)
	_, ok := <-b.Inbound()
	assert.False(t, ok)
	assert.ErrorIs(t, b.Send(ctx, domain.Message{Kind: domain.KindReadySignal}), domain.ErrTransportClosed)
	assert.NoError(t, b.Close(), "double close is harmless")
}

func TestPipe_SendRespectsContextWhenFull(t *testing.T) {
	a, b := transport.Pipe(1)
	defer b.Close()

	require.NoError(t, a.Send(context.Background(), domain.Message{Kind: domain.KindNotReady}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Send(ctx, domain.Message{Kind: domain.KindNotReady}), context.DeadlineExceeded)
}

func TestPipe_CloseUnblocksSender(t *testing.T) {
	a, b := transport.Pipe(1)
	require.NoError(t, a.Send(context.Background(), domain.Message{Kind: domain.KindNotReady}))

	errc := make(chan error, 1)
	go func() { errc <- a.Send(context.Background(), domain.Message{Kind: domain.KindNotReady}) }()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, domain.ErrTransportClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("sender still blocked after close")
	}
}
