package interfaces

import (
	"context"

	domaintypes "versus/internal/domain/types"
)

// Transport moves typed messages between the two peers.
//
// Send must be safe for concurrent use: the render goroutine sends rendezvous
// notices while the network goroutine sends key and update messages.
// Inbound is closed once the transport stops delivering.
type Transport interface {
	Send(ctx context.Context, msg domaintypes.Message) error
	Inbound() <-chan domaintypes.Message
	Close() error
}
