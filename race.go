package zipview

import (
	"time"
)

// RunWithTimeout races op against the given timeout.
//
// If op settles (success or failure) before the timer fires, its outcome is
// propagated and the timer is released; no timeout error is ever reported
// once the real outcome is known, even if both become ready at nearly the
// same instant. If the timer fires first, a *TimeoutError carrying the
// configured duration is returned; op keeps running in its goroutine to its
// natural conclusion but its eventual outcome is discarded.
//
// The select on a single buffered channel versus the timer is the one-shot
// guard: exactly one outcome can ever be reported.
func RunWithTimeout[T any](op func() (T, error), timeout time.Duration) (T, error) {
	type outcome struct {
		v   T
		err error
	}

	// buffered so the goroutine can always deliver and exit, even if the
	// timeout already won.
	done := make(chan outcome, 1)
	go func() {
		v, err := op()
		done <- outcome{v: v, err: err}
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case o := <-done:
		return o.v, o.err
	case <-t.C:
		var zero T
		return zero, &TimeoutError{Timeout: timeout}
	}
}
