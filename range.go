package zipview

import (
	"fmt"
	"io"
)

// RangeReader is the shared random-access read capability implemented by both
// the zero-copy (stored) and the decode-backed entry data paths.
type RangeReader interface {
	// ReadRange returns up to length bytes of the entry's data starting
	// at the logical index off.
	//
	// Both bounds are clamped rather than rejected, mirroring slice
	// semantics: a negative off counts from the end of the entry (floored
	// at 0), a non-negative off is capped at the entry size, and the end
	// of the window is capped at the entry size. Out-of-range requests
	// therefore return a short or empty result, never an error. Callers
	// rely on this tolerance; do not tighten it into bounds checking.
	ReadRange(off, length int64) ([]byte, error)

	// Size returns the entry's logical byte length.
	Size() int64
}

// clampIndex interprets i as a slice index into an entry of the given size: a
// negative value is an offset from the end floored at 0, a non-negative value
// is capped at size.
func clampIndex(i, size int64) int64 {
	if i < 0 {
		if i += size; i < 0 {
			return 0
		}
	}
	if i > size {
		return size
	}
	return i
}

// clampRange resolves ReadRange arguments into an absolute [start, end)
// window within [0, size). Clamping happens entirely in logical space.
func clampRange(off, length, size int64) (start, end int64) {
	start = clampIndex(off, size)
	if length <= 0 {
		return start, start
	}
	if end = start + length; end > size {
		end = size
	}
	return start, end
}

// storedRange reads an entry stored without compression directly out of the
// container. The data window is fixed at construction; clamping before the
// offset translation guarantees reads can never stray into an adjacent
// entry's header or data.
type storedRange struct {
	src  ByteSource
	base int64
	size int64
}

var _ RangeReader = (*storedRange)(nil)

func newStoredRange(src ByteSource, meta EntryMetadata) *storedRange {
	return &storedRange{
		src:  src,
		base: meta.DataOffset(),
		size: meta.CompressedSize,
	}
}

func (r *storedRange) ReadRange(off, length int64) ([]byte, error) {
	start, end := clampRange(off, length, r.size)
	if start == end {
		return []byte{}, nil
	}

	p := make([]byte, end-start)
	if n, err := r.src.ReadAt(p, r.base+start); int64(n) < end-start {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read entry data at [%d, %d) error: %w", start, end, err)
	}

	return p, nil
}

func (r *storedRange) Size() int64 {
	return r.size
}

// decodedRange serves reads out of a fully decoded copy of the entry. The
// O(uncompressedSize) decode cost is paid exactly once at construction, no
// matter how many partial reads follow.
type decodedRange struct {
	buf []byte
}

var _ RangeReader = (*decodedRange)(nil)

func (r *decodedRange) ReadRange(off, length int64) ([]byte, error) {
	start, end := clampRange(off, length, int64(len(r.buf)))
	return r.buf[start:end], nil
}

func (r *decodedRange) Size() int64 {
	return int64(len(r.buf))
}
