package lastcast

import "sync/atomic"

// Channel is a conflated broadcast channel of values of type T.
//
// The channel holds at most one value: the most recently published one.
// Publishing replaces the held value and fans it out to every open
// [Subscription]; a subscription that never consumed the previous value
// simply never sees it.
//
// All methods are safe for concurrent use.
// No method other than [*Subscription.Receive] ever blocks:
// the shared state is a single atomically-replaced snapshot,
// and every transition is a compare-and-swap retry loop.
type Channel[T any] struct {
	state atomic.Pointer[state[T]]

	// Serializes composition of one publish's candidate snapshot.
	// A publisher that cannot set this flag immediately returns
	// without performing a transition: the concurrently winning
	// publish supersedes its value, which is the conflation
	// contract rather than an error.
	//
	// Holding the flag through fan-out also means subscriptions
	// are offered values in the same order the snapshots
	// were installed.
	updating atomic.Bool

	// Closed by the one goroutine that wins
	// the live-to-terminal transition.
	done chan struct{}
}

// New returns a channel with no value;
// [*Channel.Value] fails with [ErrNoValue] until the first publish.
func New[T any]() *Channel[T] {
	c := &Channel[T]{
		done: make(chan struct{}),
	}
	c.state.Store(&state[T]{})
	return c
}

// NewWithValue returns a channel already holding v,
// as though v had been published immediately after construction.
func NewWithValue[T any](v T) *Channel[T] {
	c := &Channel[T]{
		done: make(chan struct{}),
	}
	c.state.Store(&state[T]{hasValue: true, value: v})
	return c
}

// Publish installs v as the channel's current value and fans it out to
// every subscription present in the snapshot the installation departed
// from. It never blocks and never waits for a subscriber to consume a
// prior value.
//
// If another publish is mid-transition, Publish returns nil without
// installing anything: v is treated as conflated away by the
// concurrent winner.
//
// Publish returns a [*ClosedError] if the channel is closed.
func (c *Channel[T]) Publish(v T) error {
	st := c.state.Load()
	if st.closed {
		return &ClosedError{Cause: st.cause}
	}

	if !c.updating.CompareAndSwap(false, true) {
		// Lost the composition race;
		// the winner's value supersedes v.
		return nil
	}
	defer c.updating.Store(false)

	for {
		st = c.state.Load()
		if st.closed {
			return &ClosedError{Cause: st.cause}
		}

		next := st.withValue(v)
		if !c.state.CompareAndSwap(st, next) {
			// A subscription opened or closed in the meantime.
			continue
		}

		// Fan out using the installed snapshot's list only,
		// so a subscription opened later cannot receive v
		// after a newer value.
		for _, sub := range next.subs {
			sub.offer(v)
		}
		return nil
	}
}

// Offer is [*Channel.Publish] with a comma-ok result:
// (true, nil) once the value is accepted,
// (false, *ClosedError) if the channel is closed.
func (c *Channel[T]) Offer(v T) (bool, error) {
	if err := c.Publish(v); err != nil {
		return false, err
	}
	return true, nil
}

// Value returns the most recently published value.
// It fails with [ErrNoValue] if nothing has been published
// on a channel constructed without an initial value,
// and with a [*ClosedError] if the channel is closed.
func (c *Channel[T]) Value() (T, error) {
	st := c.state.Load()

	var zero T
	if st.closed {
		return zero, &ClosedError{Cause: st.cause}
	}
	if !st.hasValue {
		return zero, ErrNoValue
	}
	return st.value, nil
}

// ValueOrZero is [*Channel.Value] with a comma-ok result
// instead of an error: false covers both the no-value
// and the closed case.
func (c *Channel[T]) ValueOrZero() (T, bool) {
	st := c.state.Load()
	if st.closed || !st.hasValue {
		var zero T
		return zero, false
	}
	return st.value, true
}

// OpenSubscription registers and returns a new subscription.
//
// If the channel already holds a value, that value is pending in the
// subscription's inbox before any future publish can observe the
// subscription, so the subscriber is guaranteed to see the latest
// value even if nothing is ever published again.
//
// On a closed channel the returned subscription is already closed
// with the channel's close cause, and is not registered.
func (c *Channel[T]) OpenSubscription() *Subscription[T] {
	sub := newSubscription(c)

	for {
		st := c.state.Load()
		if st.closed {
			sub.closeWith(st.cause)
			return sub
		}

		if st.hasValue {
			// The subscription has not been returned yet,
			// so nothing can consume the offered value;
			// re-offering after a lost CAS replaces it
			// rather than duplicating it.
			sub.offer(st.value)
		}

		if c.state.CompareAndSwap(st, st.withSub(sub)) {
			return sub
		}
	}
}

// closeSubscriber removes sub from the live subscriber list.
//
// Callers must hold the exclusive right to remove sub
// (see [*Subscription.Cancel]); calling this twice for the
// same subscription is a bug.
// Once the channel is terminal there is no list to maintain
// and the call is a no-op.
func (c *Channel[T]) closeSubscriber(sub *Subscription[T]) {
	for {
		st := c.state.Load()
		if st.closed {
			return
		}
		if c.state.CompareAndSwap(st, st.withoutSub(sub)) {
			return
		}
	}
}

// Close transitions the channel to its terminal state and reports
// whether this call performed the transition. Close is idempotent:
// every call after the first returns false.
//
// The winning call delivers closure, with the given cause, to every
// subscription that was registered at the moment of the transition.
// Subscriptions opened afterwards are returned already closed with
// the same cause.
//
// A nil cause is a normal close; operations on a closed channel
// then fail with a cause-less [*ClosedError].
func (c *Channel[T]) Close(cause error) bool {
	for {
		st := c.state.Load()
		if st.closed {
			return false
		}

		if !c.state.CompareAndSwap(st, &state[T]{closed: true, cause: cause}) {
			continue
		}

		close(c.done)
		for _, sub := range st.subs {
			sub.closeWith(cause)
		}
		return true
	}
}

// Done returns a channel that is closed once Close wins
// the terminal transition. It is intended for select-based callers
// that need to observe shutdown without polling.
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}
