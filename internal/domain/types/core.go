package types

import "strconv"

// SharedSecret is the 64-bit value both peers derive independently.
// Zero means the secret has not been established yet.
type SharedSecret uint64

// IsZero reports whether the secret is still the "not established" sentinel.
func (s SharedSecret) IsZero() bool { return s == 0 }

// Exponent is the private key-exchange exponent. It is never transmitted.
// Zero means no exponent has been generated.
type Exponent uint64

// PublicValue is base^exponent mod prime and is safe to transmit.
type PublicValue uint64

// String returns the hex form of the public value.
func (v PublicValue) String() string { return "0x" + strconv.FormatUint(uint64(v), 16) }

// Username names a mailbox on the relay.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier of a key-exchange transcript presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
