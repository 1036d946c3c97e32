package cdscan

import (
	"fmt"
)

// DecodeError reports a failure while decoding an entry's content. The
// underlying cause is available via Unwrap; most callers will want only that
// inner error (see zipview.UnwrapDecodeError).
type DecodeError struct {
	// Name is the entry's full name in the archive.
	Name string

	// Method is the entry's compression method.
	Method uint16

	// Err is the underlying cause.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(`decode "%s" (method %d) error: %v`, e.Name, e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
