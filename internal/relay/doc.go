// Package relay provides an HTTP mailbox relay and a domain.Transport that
// talks through it, for peers that cannot reach each other directly.
//
// The relay stores envelopes per recipient until they are fetched and
// acknowledged. It only ever sees public values and obfuscated payloads.
//
// HTTP API
//
//	POST /msg/{user}
//	    Enqueue an Envelope destined to {user}. If Timestamp is zero, the
//	    server fills it with the current Unix time.
//
//	GET /msg/{user}?limit=N
//	    Return up to N queued Envelopes for {user}. If limit is absent or
//	    greater than the queue length, all queued envelopes are returned.
//
//	POST /msg/{user}/ack { "count": N }
//	    Drop the first N queued envelopes for {user}. If N exceeds the queue
//	    length, the queue is cleared.
//
//	GET /healthz
//	    Liveness probe.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors with the HTTP method,
// path, and status text to aid diagnostics.
package relay
