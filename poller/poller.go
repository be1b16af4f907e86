package poller

import (
	"testing"
	"time"
)

// WaitFor continuously calls poll until check returns true. It then polls for
// a little longer to make sure that poll still returns a value v such that check(v)
// is true. If the condition never happens, or the condition becomes true
// and then false, it invokes t.Fatal.
//
// If poll returns an error, WaitFor calls Fatal.
//
// WaitFor returns the last value that poll returned.
func WaitFor[T any](t *testing.T, timeout time.Duration, poll func() (T, error), check func(T) bool) T {
	t.Helper()
	const settleChecks = 3
	const tick = time.Millisecond

	deadline := time.Now().Add(timeout)
	var v T
	satisfied := 0
	for {
		var err error
		v, err = poll()
		if err != nil {
			t.Fatalf("poller: poll failed: %v", err)
			return v
		}
		if check(v) {
			satisfied++
			if satisfied >= settleChecks {
				return v
			}
		} else if satisfied > 0 {
			t.Fatalf("poller: condition became true then false again")
			return v
		}
		if time.Now().After(deadline) {
			if satisfied > 0 {
				return v
			}
			t.Fatalf("poller: timed out after %v waiting for condition", timeout)
			return v
		}
		time.Sleep(tick)
	}
}
