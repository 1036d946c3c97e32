package zipview

import (
	"errors"
	"fmt"
	"time"

	"github.com/nguyengg/zipview/cdscan"
)

// TimeoutError is returned by RunWithTimeout if the operation did not settle
// within the configured duration.
type TimeoutError struct {
	// Timeout is the configured duration that elapsed.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.Timeout)
}

// UnwrapDecodeError normalises failures reported by the decode path.
//
// The archive scanner reports decode failures as *cdscan.DecodeError, a
// transport-level wrapper that records which entry and method failed. Callers
// of this package should only ever see the semantically meaningful inner
// error, so if err carries such a wrapper anywhere in its chain, the wrapped
// cause is returned; any other error is returned unchanged.
func UnwrapDecodeError(err error) error {
	var de *cdscan.DecodeError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err
	}
	return err
}
