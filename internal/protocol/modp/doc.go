// Package modp holds the public group parameters of the key exchange and the
// integer modular exponentiation both the exchange and the cipher rotation use.
//
// Exponentiation is square-and-multiply over uint64 with 128-bit intermediate
// products, so results are exact for every modulus up to 2^64-1. Floating
// point power is never used: it loses precision long before values reach the
// modulus bound.
package modp
