// Package keyexchange negotiates the 64-bit session secret with a
// Diffie-Hellman style exchange over the modp group.
//
// # States
//
//	Uninitialized --SendLocalKey--> LocalKeySent --ReceivePeerKey--> SecretEstablished
//	Uninitialized --ReceivePeerKey (replies first)-----------------> SecretEstablished
//
// A peer key that arrives before the local exponent exists triggers the local
// send first, so exactly one reply goes out before the secret is derived.
// Once established, further peer keys are rejected with
// domain.ErrKeyAlreadyEstablished and the state is left untouched: recomputing
// the secret after the cipher has been used would desynchronise both peers.
//
// # Security notes
//
// The exponent is derived from a clock-based nonce reduced modulo the public
// base. That space is small and predictable, and a failing nonce source falls
// back to a fixed constant (logged as domain.ErrEntropyFailure). Peer values
// are not authenticated, so an active attacker can substitute them. Only a
// passive observer is in the threat model; callers who need more must
// authenticate the transcript out of band (see crypto.TranscriptFingerprint).
package keyexchange
