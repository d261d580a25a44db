// Package rendezvous implements the one-shot "wait for opponent" gate used
// while a session loads.
//
// A Gate is a ready flag guarded by a mutex and a sync.Cond. Signal may be
// called from any goroutine, before or after AwaitReady starts waiting; the
// flag is checked under the lock before every wait, so a wakeup cannot be
// missed. Each Gate owns its flag: overlapping sessions never share state.
//
//	Waiting --Signal--> Signaled
//	Waiting --timeout--> TimedOut   (abort notice sent, ErrRendezvousTimeout)
//	Waiting --ctx done--> Cancelled
package rendezvous
