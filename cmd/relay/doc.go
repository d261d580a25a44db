// Package main runs the in-memory HTTP mailbox relay used by versus peers
// that cannot connect directly. The API is documented in internal/relay.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Each request is access-logged at debug level (method, path, remote,
//     status, bytes, duration).
//   - The default listen address is :8080.
//
// The relay is an untrusted middleman. It sees public values and obfuscated
// payloads only; players should compare session fingerprints out of band.
package main
