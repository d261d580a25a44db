package queue

import (
	"sync"

	"github.com/sirupsen/logrus"

	"versus/internal/domain"
)

// Queue is a thread-safe FIFO of T.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	limit int
	log   *logrus.Entry
}

// Option configures a Queue.
type Option func(*options)

type options struct {
	limit int
	log   *logrus.Entry
}

// WithLimit caps the number of queued entries. Pushes beyond the cap are
// dropped as allocation failures. Zero (the default) means unbounded.
func WithLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithLogger sets the entry used to report dropped pushes.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New returns an empty queue.
func New[T any](opts ...Option) *Queue[T] {
	o := options{log: logrus.WithField("component", "queue")}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{limit: o.limit, log: o.log}
}

// Push appends v to the tail. A dropped push is logged and reported as
// domain.ErrAllocationFailure; it is never fatal.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.limit > 0 && len(q.items) >= q.limit {
		n := len(q.items)
		q.mu.Unlock()
		q.log.WithFields(logrus.Fields{
			"function": "Push",
			"queued":   n,
			"limit":    q.limit,
		}).Warn("Update dropped")
		return domain.ErrAllocationFailure
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	return nil
}

// Pop removes and returns the head. ok is false when the queue is empty, in
// which case v is the zero value and must not be used.
func (q *Queue[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero // release references held by the backing array
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

// IsEmpty is an advisory snapshot; Pop's result is authoritative.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of queued entries at the time of the call.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain pops up to max entries (all entries present at call time when max is
// zero or negative) and hands each to fn in FIFO order. The lock is not held
// while fn runs. It returns the number of entries handled.
func (q *Queue[T]) Drain(max int, fn func(T)) int {
	if max <= 0 {
		max = q.Len()
	}
	n := 0
	for n < max {
		v, ok := q.Pop()
		if !ok {
			break
		}
		fn(v)
		n++
	}
	return n
}
