package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"versus/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public value.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(v domain.PublicValue) domain.Fingerprint {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	sum := sha256.Sum256(b[:])
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}

// TranscriptFingerprint fingerprints the pair of public values exchanged in a
// session. Both peers compute the same result regardless of argument order,
// so players can compare it out of band to detect an interposed relay.
func TranscriptFingerprint(a, b domain.PublicValue) domain.Fingerprint {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(lo))
	binary.BigEndian.PutUint64(buf[8:], uint64(hi))
	sum := sha256.Sum256(buf[:])
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
