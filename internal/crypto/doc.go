// Package crypto holds display helpers over session key material.
//
// Fingerprints are short, human-comparable digests of public values. They are
// for logs and out-of-band comparison only and carry no secrets.
package crypto
