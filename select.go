package lastcast

// Selector is the subset of an external selection mechanism that a
// publish can participate in. The mechanism registers several candidate
// operations and guarantees that at most one of them proceeds.
type Selector interface {
	// TrySelect attempts to claim exclusive selection for this
	// alternative. It must not block; false means another
	// alternative already won.
	TrySelect() bool

	// Fail reports a failure of the selected alternative back into
	// the selection mechanism, for callers that are resumed through
	// the selector rather than an ordinary return.
	Fail(err error)
}

// PublishSelect offers publishing v as one alternative of an external
// select. Selection is claimed first; only a successful claim performs
// the publish transition. If the channel turns out to be closed, the
// resulting [*ClosedError] is delivered through sel.Fail instead of
// being returned.
//
// If the claim fails, nothing happens: another alternative won the
// race and v is discarded.
func (c *Channel[T]) PublishSelect(sel Selector, v T) {
	if !sel.TrySelect() {
		return
	}
	if err := c.Publish(v); err != nil {
		sel.Fail(err)
	}
}
