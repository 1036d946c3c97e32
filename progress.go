package zipview

import (
	"log"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// ProgressFunc is called to provide updates on a long operation.
//
//   - action: what is being done, e.g. "unpack"
//   - item: what it is being done to, e.g. the entry name
//   - fraction: estimated completion in [0, 1]; the final call is always
//     exactly 1 regardless of the estimate's accuracy
type ProgressFunc func(action, item string, fraction float64)

// ProgressOptions customises RunWithProgress.
type ProgressOptions struct {
	// FrameInterval is the cadence of synthetic progress updates.
	//
	// Defaults to DefaultFrameInterval.
	FrameInterval time.Duration
}

// DefaultFrameInterval approximates a 60 fps animation tick.
const DefaultFrameInterval = 16 * time.Millisecond

// RunWithProgress runs work while driving onProgress on a fixed cadence.
//
// onProgress is called with fraction 0 immediately, then with
// elapsed/estimated on every frame tick until either the estimate is
// exhausted or work has finished, whichever comes first. The runner then
// waits for work if it is still pending and finally reports fraction 1
// unconditionally, so 100% is always the last callback even if work took
// longer or shorter than the estimate. The reported fractions are
// non-decreasing.
//
// This is a best-effort UX signal, not a measurement: estimated is a guess,
// and the real operation's completion always overrides the synthetic curve at
// the end. Returns work's error verbatim.
func RunWithProgress(action, item string, onProgress ProgressFunc, estimated time.Duration, work func() error, optFns ...func(*ProgressOptions)) error {
	opts := &ProgressOptions{FrameInterval: DefaultFrameInterval}
	for _, fn := range optFns {
		fn(opts)
	}

	onProgress(action, item, 0)

	done := make(chan error, 1)
	go func() {
		done <- work()
	}()

	ticker := time.NewTicker(opts.FrameInterval)
	start := time.Now()

	var err error
tickLoop:
	for {
		select {
		case err = <-done:
			break tickLoop
		case <-ticker.C:
			f := float64(time.Since(start)) / float64(estimated)
			if f >= 1 {
				// estimate exhausted; stop animating and wait for the real thing.
				ticker.Stop()
				err = <-done
				break tickLoop
			}
			onProgress(action, item, f)
		}
	}
	ticker.Stop()

	onProgress(action, item, 1)
	return err
}

// NewBarProgress returns a ProgressFunc rendering a progressbar on stderr.
//
// The bar is created lazily on the first callback so that no terminal output
// happens if the operation never starts.
func NewBarProgress(options ...progressbar.Option) ProgressFunc {
	var bar *progressbar.ProgressBar

	return func(action, item string, fraction float64) {
		if bar == nil {
			bar = progressbar.NewOptions(100,
				append([]progressbar.Option{
					progressbar.OptionSetDescription(action + " " + item),
					progressbar.OptionSetWidth(10),
					progressbar.OptionClearOnFinish(),
					progressbar.OptionSetRenderBlankState(true),
				}, options...)...)
		}

		_ = bar.Set(int(fraction * 100))
		if fraction >= 1 {
			_ = bar.Finish()
		}
	}
}

// NewLogProgress returns a ProgressFunc that logs progress with the given
// interval using [rate.Sometimes] for throttling. The final 100% update is
// always logged.
func NewLogProgress(logger *log.Logger, interval time.Duration) ProgressFunc {
	sometimes := &rate.Sometimes{First: 1, Interval: interval}

	return func(action, item string, fraction float64) {
		if fraction >= 1 {
			logger.Printf(`%s "%s": done`, action, item)
			return
		}

		sometimes.Do(func() {
			logger.Printf(`%s "%s": %.0f%% so far`, action, item, fraction*100)
		})
	}
}
