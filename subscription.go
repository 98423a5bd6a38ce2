package lastcast

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// Subscription is a single-reader endpoint of a [Channel].
//
// The inbox is conflated like the parent channel: if the reader has not
// consumed the previous value when a new one is fanned out, the
// previous value is dropped. Values that are consumed arrive in
// publication order; intermediate values may be skipped but never
// reordered.
//
// A Subscription is intended for one reading goroutine.
type Subscription[T any] struct {
	parent *Channel[T]

	mu       sync.Mutex
	hasValue bool
	value    T
	closed   bool
	cause    error

	// Closed and replaced when the empty slot gains a value,
	// waking any suspended Receive.
	// Closed permanently when the subscription closes.
	ready chan struct{}
}

func newSubscription[T any](parent *Channel[T]) *Subscription[T] {
	return &Subscription[T]{
		parent: parent,
		ready:  make(chan struct{}),
	}
}

// offer is the fan-out entry point.
// It replaces any unconsumed value and never blocks.
// Offers to a closed subscription are discarded.
func (s *Subscription[T]) offer(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.value = v
	if !s.hasValue {
		s.hasValue = true
		close(s.ready)
		s.ready = make(chan struct{})
	}
}

// closeWith marks the subscription closed with the given cause,
// reporting whether this call performed the close.
// A value left unconsumed in the slot remains receivable.
func (s *Subscription[T]) closeWith(cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.closed = true
	s.cause = cause
	close(s.ready)
	return true
}

// Receive returns the pending value, suspending the caller while the
// inbox is empty. It fails with a [*ClosedError] once the subscription
// is closed and any final pending value has been consumed.
//
// Cancelling ctx abandons the wait and returns the context's cause,
// with no effect on the subscription or the parent channel.
func (s *Subscription[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	for {
		s.mu.Lock()
		if s.hasValue {
			v := s.value
			s.hasValue = false
			s.value = zero
			s.mu.Unlock()
			return v, nil
		}
		if s.closed {
			cause := s.cause
			s.mu.Unlock()
			return zero, &ClosedError{Cause: cause}
		}
		ready := s.ready
		s.mu.Unlock()

		select {
		case <-ready:
			// Re-check the slot; a racing reader or a close
			// may have consumed the wakeup.
		case <-ctx.Done():
			return zero, context.Cause(ctx)
		}
	}
}

// ReceiveOK is [*Subscription.Receive] with a comma-ok result for
// closure: (zero, false, nil) once the subscription is closed.
// The error is only non-nil when ctx is cancelled.
func (s *Subscription[T]) ReceiveOK(ctx context.Context) (T, bool, error) {
	v, err := s.Receive(ctx)
	if err != nil {
		var zero T
		var closed *ClosedError
		if errors.As(err, &closed) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return v, true, nil
}

// Values returns a single-use iterator over received values.
// The sequence is lazy, and finite once the subscription closes or
// ctx is cancelled. Breaking out of the range does not close the
// subscription; use [*Subscription.Cancel] for that.
func (s *Subscription[T]) Values(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok, err := s.ReceiveOK(ctx)
			if err != nil || !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Cancel closes the subscription with the given cause and reports
// whether this call performed the close. The winning call deregisters
// the subscription from the parent channel, so a Cancel racing a
// channel-wide Close still removes it exactly once.
func (s *Subscription[T]) Cancel(cause error) bool {
	if !s.closeWith(cause) {
		return false
	}
	s.parent.closeSubscriber(s)
	return true
}
