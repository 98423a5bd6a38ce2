package lastcast_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gordian-engine/lastcast"
	"github.com/gordian-engine/lastcast/internal/ltest"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSubscription_Receive_suspendsUntilPublish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c := lastcast.New[int]()
	sub := c.OpenSubscription()

	got := make(chan int, 1)
	go func() {
		v, err := sub.Receive(ctx)
		if err == nil {
			got <- v
		}
	}()

	ltest.NotSending(t, got)

	require.NoError(t, c.Publish(42))
	require.Equal(t, 42, ltest.ReceiveSoon(t, got))
}

func TestSubscription_Receive_ctxCancellation(t *testing.T) {
	t.Parallel()

	cancelCause := errors.New("caller gave up")

	c := lastcast.New[int]()
	sub := c.OpenSubscription()

	ctx, cancel := context.WithCancelCause(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Receive(ctx)
		errCh <- err
	}()

	ltest.NotSending(t, errCh)

	cancel(cancelCause)
	require.ErrorIs(t, ltest.ReceiveSoon(t, errCh), cancelCause)

	// Abandoning the wait had no effect on shared state:
	// the subscription is still registered and receives the next value.
	require.NoError(t, c.Publish(9))

	v, err := sub.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, v)
}

func TestSubscription_Receive_drainsPendingValueBeforeClosure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c := lastcast.New[int]()
	sub := c.OpenSubscription()

	require.NoError(t, c.Publish(3))
	require.True(t, c.Close(nil))

	// The value offered before the close is still delivered once.
	v, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = sub.Receive(ctx)
	var closed *lastcast.ClosedError
	require.ErrorAs(t, err, &closed)
}

func TestSubscription_ReceiveOK(t *testing.T) {
	t.Parallel()

	t.Run("closure yields not-ok instead of an error", func(t *testing.T) {
		t.Parallel()

		c := lastcast.New[int]()
		sub := c.OpenSubscription()
		require.True(t, c.Close(errors.New("cause is swallowed here")))

		_, ok, err := sub.ReceiveOK(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("ctx cancellation still surfaces", func(t *testing.T) {
		t.Parallel()

		c := lastcast.New[int]()
		sub := c.OpenSubscription()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, ok, err := sub.ReceiveOK(ctx)
		require.False(t, ok)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSubscription_Values_endsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c := lastcast.NewWithValue(1)
	sub := c.OpenSubscription()

	var seen []int
	for v := range sub.Values(ctx) {
		seen = append(seen, v)

		// Close from inside the loop; the iterator must observe
		// it and terminate rather than suspending forever.
		c.Close(nil)
	}

	require.Equal(t, []int{1}, seen)
}

func TestSubscription_Values_breakLeavesSubscriptionOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c := lastcast.NewWithValue(1)
	sub := c.OpenSubscription()

	for range sub.Values(ctx) {
		break
	}

	// Breaking out does not close the subscription.
	require.NoError(t, c.Publish(2))

	v, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestSubscription_Cancel_deregistersFromChannel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c := lastcast.New[int]()
	s1 := c.OpenSubscription()
	s2 := c.OpenSubscription()

	require.True(t, s1.Cancel(nil))
	require.False(t, s1.Cancel(nil))

	// The channel stays live for everyone else.
	require.NoError(t, c.Publish(8))

	v, err := s2.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, v)

	_, err = s1.Receive(ctx)
	var closed *lastcast.ClosedError
	require.ErrorAs(t, err, &closed)
	require.Nil(t, closed.Cause)
}

func TestSubscription_Cancel_carriesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("reader left")

	c := lastcast.New[int]()
	sub := c.OpenSubscription()

	require.True(t, sub.Cancel(cause))

	_, err := sub.Receive(context.Background())
	require.ErrorIs(t, err, cause)
}

func TestSubscription_Cancel_racingChannelClose(t *testing.T) {
	t.Parallel()

	// A reader-side Cancel racing a channel-wide Close
	// must close and deregister the subscription exactly once.
	for range 50 {
		c := lastcast.New[int]()
		sub := c.OpenSubscription()

		var g errgroup.Group
		g.Go(func() error {
			sub.Cancel(nil)
			return nil
		})
		g.Go(func() error {
			c.Close(nil)
			return nil
		})
		require.NoError(t, g.Wait())

		_, err := sub.Receive(context.Background())
		var closed *lastcast.ClosedError
		require.ErrorAs(t, err, &closed)
	}
}
