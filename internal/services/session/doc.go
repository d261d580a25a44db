// Package session runs one two-player session over a domain.Transport.
//
// A Session owns the key exchange, the message cipher, the rendezvous gate
// and the update queue, and wires them to the transport:
//
//   - Run is the network goroutine. It is the only reader of the transport
//     and the only user of the cipher. Inbound messages are dispatched by kind
//     and decrypted updates are pushed onto the queue.
//   - The render goroutine calls Send, Poll, MarkLoaded and AwaitOpponent.
//     Send hands updates to Run through a bounded outbox.
//
// Any fatal condition (cipher desync, invalid or changed peer value, lost
// transport) notifies the peer once with a SessionAbort, closes the transport
// and wipes key material. Err reports the cause after Done is closed.
package session
