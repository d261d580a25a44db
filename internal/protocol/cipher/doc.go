// Package cipher obfuscates message payloads with the shared secret and
// rotates the key after every message.
//
// The transform is a byte-wise additive stream: each ciphertext byte is the
// plaintext byte plus an HKDF-SHA256 keystream byte plus the previous
// ciphertext byte, modulo 256. Chaining on the previous output makes the
// transform order dependent, so repeated plaintext characters do not repeat in
// the ciphertext.
//
// Rotation is base^key mod prime. Each direction of a Cipher keeps its own
// chain, and the chain index is bound into the keystream, so no keystream is
// ever used twice within a session.
//
// Both peers must advance in lock-step. A dropped or duplicated message
// surfaces as domain.ErrCipherDesync and is not recoverable: the session must
// be torn down.
//
// The scheme provides obfuscation against a passive observer only. It carries
// no integrity protection.
//
// Concurrency: Cipher serialises its own state, but callers should keep it on
// a single goroutine so that Seal order matches wire order.
package cipher
