package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versus/internal/domain"
	"versus/internal/relay"
)

func newClient(t *testing.T, base string, me, peer domain.Username) *relay.Client {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	c, err := relay.NewClient(relay.ClientConfig{
		Base:         base,
		Me:           me,
		Peer:         peer,
		PollInterval: 5 * time.Millisecond,
		Logger:       logrus.NewEntry(logger),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func recv(t *testing.T, c *relay.Client) domain.Message {
	t.Helper()
	select {
	case m, ok := <-c.Inbound():
		require.True(t, ok, "inbound closed")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message from relay")
		return domain.Message{}
	}
}

func TestClient_RoundTripThroughRelay(t *testing.T) {
	srv, ts := newServer(t, 0)
	alice := newClient(t, ts.URL, "alice", "bob")
	bob := newClient(t, ts.URL, "bob", "alice")
	ctx := context.Background()

	require.NoError(t, alice.Send(ctx, domain.Message{Kind: domain.KindKeyExchange, Value: 0x1234}))
	require.NoError(t, alice.Send(ctx, domain.Message{Kind: domain.KindChatOrUpdate, Seq: 0, Payload: []byte{9, 8, 7}}))

	m := recv(t, bob)
	assert.Equal(t, domain.KindKeyExchange, m.Kind)
	assert.Equal(t, domain.PublicValue(0x1234), m.Value)
	m = recv(t, bob)
	assert.Equal(t, []byte{9, 8, 7}, m.Payload)

	require.NoError(t, bob.Send(ctx, domain.Message{Kind: domain.KindReadySignal}))
	assert.Equal(t, domain.KindReadySignal, recv(t, alice).Kind)

	require.Eventually(t, func() bool { return srv.Pending("bob") == 0 && srv.Pending("alice") == 0 },
		time.Second, 5*time.Millisecond, "mailboxes should be acknowledged")
}

func TestClient_DropsStrangers(t *testing.T) {
	_, ts := newServer(t, 0)
	bob := newClient(t, ts.URL, "bob", "alice")
	mallory := newClient(t, ts.URL, "mallory", "bob")
	alice := newClient(t, ts.URL, "alice", "bob")
	ctx := context.Background()

	require.NoError(t, mallory.Send(ctx, domain.Message{Kind: domain.KindSessionAbort, Reason: "spoof"}))
	require.NoError(t, alice.Send(ctx, domain.Message{Kind: domain.KindReadySignal}))

	assert.Equal(t, domain.KindReadySignal, recv(t, bob).Kind)
}

func TestClient_CloseEndsInbound(t *testing.T) {
	_, ts := newServer(t, 0)
	c := newClient(t, ts.URL, "alice", "bob")

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, ok := <-c.Inbound()
	assert.False(t, ok)
	assert.ErrorIs(t, c.Send(context.Background(), domain.Message{Kind: domain.KindReadySignal}), domain.ErrTransportClosed)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := relay.NewClient(relay.ClientConfig{Me: "a", Peer: "b"})
	assert.Error(t, err)
	_, err = relay.NewClient(relay.ClientConfig{Base: "http://x", Me: "a", Peer: "a"})
	assert.Error(t, err)
}

func TestClient_FailedAckDoesNotRedeliver(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	srv := relay.NewServer(0, logrus.NewEntry(logger))
	var ackFailures atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/ack") && ackFailures.Add(1) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		srv.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	alice := newClient(t, ts.URL, "alice", "bob")
	bob := newClient(t, ts.URL, "bob", "alice")
	ctx := context.Background()

	require.NoError(t, alice.Send(ctx, domain.Message{Kind: domain.KindChatOrUpdate, Seq: 0}))
	assert.Equal(t, uint64(0), recv(t, bob).Seq)

	require.Eventually(t, func() bool { return srv.Pending("bob") == 0 },
		time.Second, 5*time.Millisecond, "the failed ack should be retried")
	assert.GreaterOrEqual(t, ackFailures.Load(), int32(2))

	require.NoError(t, alice.Send(ctx, domain.Message{Kind: domain.KindChatOrUpdate, Seq: 1}))
	assert.Equal(t, uint64(1), recv(t, bob).Seq, "seq 0 must not be delivered again")

	select {
	case m := <-bob.Inbound():
		t.Fatalf("unexpected redelivery: %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}
