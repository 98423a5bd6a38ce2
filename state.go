package lastcast

// state is one immutable snapshot of a channel's shared state.
//
// A snapshot is either live or terminal.
// A live snapshot pairs the current value, if any,
// with the current subscriber list.
// A terminal snapshot records the close cause and nothing else;
// once the channel's reference points at a terminal snapshot,
// it never points at a live one again.
//
// Snapshots are never mutated in place.
// Every transition builds a new snapshot from the old one,
// so a goroutine still holding an older snapshot
// can keep reading it after it has been replaced.
type state[T any] struct {
	// Terminal marker. When true, only cause is meaningful.
	closed bool
	cause  error

	// Whether value holds a published element.
	// False until the first publish on a channel
	// constructed without an initial value.
	hasValue bool
	value    T

	// Copy-on-write subscriber list, unique by identity.
	// Nil when there are no subscribers.
	subs []*Subscription[T]
}

// withValue returns a live snapshot holding v
// and s's unchanged subscriber list.
func (s *state[T]) withValue(v T) *state[T] {
	return &state[T]{
		hasValue: true,
		value:    v,
		subs:     s.subs,
	}
}

// withSub returns a live snapshot with sub appended
// to a copy of s's subscriber list.
func (s *state[T]) withSub(sub *Subscription[T]) *state[T] {
	subs := make([]*Subscription[T], len(s.subs)+1)
	copy(subs, s.subs)
	subs[len(s.subs)] = sub

	return &state[T]{
		hasValue: s.hasValue,
		value:    s.value,
		subs:     subs,
	}
}

// withoutSub returns a live snapshot whose subscriber list
// is a copy of s's with sub filtered out.
func (s *state[T]) withoutSub(sub *Subscription[T]) *state[T] {
	var subs []*Subscription[T]
	if len(s.subs) > 1 {
		subs = make([]*Subscription[T], 0, len(s.subs)-1)
		for _, have := range s.subs {
			if have != sub {
				subs = append(subs, have)
			}
		}
	}

	return &state[T]{
		hasValue: s.hasValue,
		value:    s.value,
		subs:     subs,
	}
}
