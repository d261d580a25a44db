package domain

import "errors"

// Recoverable conditions. Components log these and keep running.
var (
	// ErrEntropyFailure is logged when the nonce source fails and the fixed fallback is used.
	ErrEntropyFailure = errors.New("entropy source failed; using fallback nonce")
	// ErrAllocationFailure is returned when a queue push is dropped.
	ErrAllocationFailure = errors.New("queue allocation failed; entry dropped")
)

// Fatal conditions. The session owner notifies the peer and tears the session down.
var (
	ErrCipherDesync      = errors.New("cipher chains out of step")
	ErrRendezvousTimeout = errors.New("timed out waiting for opponent")
	ErrInvalidPeerValue  = errors.New("invalid peer public value")
	ErrSessionAborted    = errors.New("session aborted by peer")
)

var (
	ErrInvalidParams         = errors.New("invalid group parameters")
	ErrInvalidState          = errors.New("operation not valid in current key-exchange state")
	ErrKeyAlreadyEstablished = errors.New("shared secret already established")
	ErrNotEstablished        = errors.New("shared secret not established")
	ErrSessionClosed         = errors.New("session closed")
	ErrTransportClosed       = errors.New("transport closed")
)
