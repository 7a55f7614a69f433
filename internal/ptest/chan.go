package ptest

import (
	"testing"
	"time"
)

// ScaledTimeout is the bound used by the Soon helpers.
// Generous so that loaded CI machines do not cause flakes.
const ScaledTimeout = 10 * time.Second

// ReceiveSoon returns a value received from ch,
// failing the test if nothing arrives within [ScaledTimeout].
func ReceiveSoon[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(ScaledTimeout):
		t.Fatalf("timed out waiting to receive")
		panic("unreachable")
	}
}

// SendSoon sends v on ch,
// failing the test if the send does not complete within [ScaledTimeout].
func SendSoon[T any](t *testing.T, ch chan<- T, v T) {
	t.Helper()

	select {
	case ch <- v:
	case <-time.After(ScaledTimeout):
		t.Fatalf("timed out waiting to send")
	}
}

// WaitFor polls cond until it reports true,
// failing the test if it does not within [ScaledTimeout].
func WaitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(ScaledTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
