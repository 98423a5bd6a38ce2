package ltest

import (
	"testing"
	"time"
)

// How long the *Soon helpers wait before failing the test.
const soonDur = 10 * time.Second

// ReceiveSoon returns a value received from ch,
// failing t if nothing arrives within a reasonable deadline.
func ReceiveSoon[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	timer := time.NewTimer(soonDur)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
		t.Fatalf("nothing received within %s", soonDur)
		panic("unreachable")
	}
}

// IsSending returns a value received from ch,
// failing t if the receive would have blocked.
func IsSending[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	default:
		t.Fatal("expected channel to be sending, but it was not")
		panic("unreachable")
	}
}

// NotSending asserts that a receive from ch would block.
func NotSending[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	select {
	case <-ch:
		t.Fatal("expected channel to not be sending, but it was")
	default:
	}
}
