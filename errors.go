package lastcast

import "errors"

// ErrNoValue is returned from [*Channel.Value] when no value has been
// published yet and the channel was constructed without an initial one.
var ErrNoValue = errors.New("no value published yet")

// ClosedError is returned from operations attempted after the channel
// was closed.
type ClosedError struct {
	// The error given to [*Channel.Close] or [*Subscription.Cancel],
	// if any. Nil for a normal close.
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return "channel closed"
	}
	return "channel closed: " + e.Cause.Error()
}

// Unwrap returns the close cause, if one was supplied.
func (e *ClosedError) Unwrap() error {
	return e.Cause
}
