// Package queue provides the update queue that carries values from the
// network goroutine to the render loop.
//
// A Queue is a mutex-guarded FIFO. Pop never blocks and reports absence
// explicitly, so a render frame can poll it without stalling. One consumer is
// assumed; several consumers may race between IsEmpty and Pop and are not
// supported.
package queue
