// Package lastcasttest contains helpers for tests
// that drive publisher and subscriber herds
// against a lastcast channel.
package lastcasttest

import (
	"context"
	"log/slog"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/lastcast"
	"github.com/gordian-engine/lastcast/internal/ltest"
	"golang.org/x/sync/errgroup"
)

// Fixture bundles a channel of int markers with a test logger.
//
// Create an instance with [NewFixture].
type Fixture struct {
	Log *slog.Logger

	Channel *lastcast.Channel[int]
}

// NewFixture returns an initialized Fixture
// whose channel holds no initial value.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	return &Fixture{
		Log:     ltest.NewLogger(t),
		Channel: lastcast.New[int](),
	}
}

// RunPublishers starts n publisher goroutines in g.
// Publisher i publishes the markers [i*per, (i+1)*per) in ascending
// order; every marker it publishes, including ones that lose a
// conflation race, is recorded in the returned set at index i.
//
// Publishers stop with an error if the channel closes under them.
func (f *Fixture) RunPublishers(g *errgroup.Group, n, per int) []*bitset.BitSet {
	published := make([]*bitset.BitSet, n)

	for i := range published {
		set := bitset.New(uint(n * per))
		published[i] = set
		lo := i * per

		g.Go(func() error {
			for m := lo; m < lo+per; m++ {
				if err := f.Channel.Publish(m); err != nil {
					return err
				}
				set.Set(uint(m))
			}
			return nil
		})
	}

	return published
}

// Drain receives from sub until it closes,
// returning the transcript in delivery order.
// The error is only non-nil when ctx is cancelled.
func (f *Fixture) Drain(
	ctx context.Context, sub *lastcast.Subscription[int],
) ([]int, error) {
	var out []int
	for {
		v, ok, err := sub.ReceiveOK(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Observed returns the set of markers present in a transcript,
// sized to hold markers below n.
func Observed(transcript []int, n int) *bitset.BitSet {
	set := bitset.New(uint(n))
	for _, v := range transcript {
		set.Set(uint(v))
	}
	return set
}
