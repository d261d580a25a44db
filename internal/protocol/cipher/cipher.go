package cipher

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"versus/internal/domain"
	"versus/internal/protocol/modp"
	"versus/internal/util/memzero"
)

const (
	keystreamLabel = "versus|ks"
	// blockSize stays below HKDF-SHA256's 255*32 byte output limit.
	blockSize = 4096

	lowToHigh = "lo>hi"
	highToLow = "hi>lo"
)

// Encrypt applies the keyed transform to msg with key.
func Encrypt(msg []byte, key uint64) []byte {
	return transform(msg, key, []byte(keystreamLabel), false)
}

// Decrypt inverts Encrypt for the same key.
func Decrypt(msg []byte, key uint64) []byte {
	return transform(msg, key, []byte(keystreamLabel), true)
}

// Rotate advances key one step: base^key mod prime.
func Rotate(key uint64, p modp.Params) uint64 {
	return modp.Exp(p.Base, key, p.Prime)
}

type chain struct {
	label string
	key   uint64
	seq   uint64
}

func (c *chain) info() []byte {
	b := make([]byte, 0, len(keystreamLabel)+1+len(c.label)+8)
	b = append(b, keystreamLabel...)
	b = append(b, '|')
	b = append(b, c.label...)
	return binary.BigEndian.AppendUint64(b, c.seq)
}

func (c *chain) advance(p modp.Params) {
	c.key = Rotate(c.key, p)
	c.seq++
}

// Cipher holds the send and receive chains of one session.
type Cipher struct {
	mu     sync.Mutex
	params modp.Params
	send   chain
	recv   chain
}

// New seeds both chains from secret. The ordering of the two public values
// picks the direction labels, so both peers agree on them without a role flag.
func New(secret domain.SharedSecret, local, peer domain.PublicValue, p modp.Params) (*Cipher, error) {
	if secret.IsZero() {
		return nil, domain.ErrNotEstablished
	}
	if local == peer {
		return nil, fmt.Errorf("%w: local and peer public values are equal", domain.ErrInvalidPeerValue)
	}
	sendLabel, recvLabel := lowToHigh, highToLow
	if local > peer {
		sendLabel, recvLabel = highToLow, lowToHigh
	}
	return &Cipher{
		params: p,
		send:   chain{label: sendLabel, key: uint64(secret)},
		recv:   chain{label: recvLabel, key: uint64(secret)},
	}, nil
}

// Seal encrypts plaintext with the current send key, then rotates it. seq is
// the chain index the peer needs to Open the result.
func (c *Cipher) Seal(plaintext []byte) (seq uint64, ciphertext []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq = c.send.seq
	ciphertext = transform(plaintext, c.send.key, c.send.info(), false)
	c.send.advance(c.params)
	return seq, ciphertext
}

// Open decrypts ciphertext sent at index seq. Any index other than the next
// expected one is a desync; the receive chain is left where it was.
func (c *Cipher) Open(seq uint64, ciphertext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.recv.seq {
		return nil, fmt.Errorf("%w: got index %d, want %d", domain.ErrCipherDesync, seq, c.recv.seq)
	}
	plaintext := transform(ciphertext, c.recv.key, c.recv.info(), true)
	c.recv.advance(c.params)
	return plaintext, nil
}

// Counters returns how many messages each direction has processed.
func (c *Cipher) Counters() (sent, received uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send.seq, c.recv.seq
}

// Wipe zeroes both chain keys.
func (c *Cipher) Wipe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.send.key, c.recv.key = 0, 0
}

func transform(in []byte, key uint64, info []byte, decrypt bool) []byte {
	ks := keystream(key, info, len(in))
	defer memzero.Zero(ks)

	out := make([]byte, len(in))
	prev := byte(key)
	for i, b := range in {
		if decrypt {
			out[i] = b - ks[i] - prev
			prev = b
			continue
		}
		out[i] = b + ks[i] + prev
		prev = out[i]
	}
	return out
}

// keystream expands key into n bytes, one HKDF per block.
func keystream(key uint64, info []byte, n int) []byte {
	var ikm [8]byte
	binary.BigEndian.PutUint64(ikm[:], key)
	defer memzero.Zero(ikm[:])

	out := make([]byte, n)
	blockInfo := make([]byte, len(info), len(info)+4)
	copy(blockInfo, info)
	for off, block := 0, uint32(0); off < n; off, block = off+blockSize, block+1 {
		end := min(off+blockSize, n)
		r := hkdf.New(sha256.New, ikm[:], nil, binary.BigEndian.AppendUint32(blockInfo[:len(info)], block))
		_, _ = io.ReadFull(r, out[off:end])
	}
	return out
}
