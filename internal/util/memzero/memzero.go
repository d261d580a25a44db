// Package memzero wipes sensitive buffers such as keystream blocks.
package memzero

import "runtime"

// Zero overwrites b with zeros. The write is kept live so the compiler does
// not drop it as a dead store.
//
//go:noinline
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	clear(b)
	runtime.KeepAlive(b)
}

// ZeroAll wipes every buffer in bufs.
func ZeroAll(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
