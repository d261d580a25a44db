// Package transport provides domain.Transport implementations for direct play.
//
//   - Pipe: a connected in-memory pair, used by tests and the self-play demo.
//   - Stream: a single net.Conn carrying one CBOR item per Message.
//
// Neither adds ordering or retransmission beyond what the underlying channel
// or socket gives. Closing either end of a Pipe closes both; messages already
// buffered stay readable until the inbound channel drains.
package transport
