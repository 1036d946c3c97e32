// Package zipview reads the content of a single zip entry without extracting
// the whole archive.
//
// The entry's local file header is parsed to locate the true data window
// inside the container. Entries stored without compression are then served by
// slicing the underlying [ByteSource] directly; compressed entries are decoded
// once into memory. Both paths sit behind the same [RangeReader] contract so
// callers never care which one was chosen.
//
// The package also provides two standalone concurrency utilities that pair
// well with remote byte sources: [RunWithTimeout] races an operation against
// a deadline, and [RunWithProgress] drives a synthetic progress curve
// alongside a long operation.
package zipview

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// Entry describes a single file inside a zip container, typically produced by
// scanning the container's central directory (see the cdscan package).
type Entry interface {
	// HeaderOffset returns the absolute position of the entry's local
	// file header within the container.
	HeaderOffset() int64

	// WriteData decodes the entry's content in its entirety and writes
	// the decoded bytes to dst.
	WriteData(ctx context.Context, dst io.Writer) (int64, error)
}

// Options customises NewEntryReader.
type Options struct {
	// ContentType declares the MIME type of the decoded output.
	//
	// It is recorded verbatim for the caller's benefit; this package
	// never sniffs or validates it.
	ContentType string
}

// WithContentType declares the MIME type of the entry's decoded content.
func WithContentType(contentType string) func(*Options) {
	return func(opts *Options) {
		opts.ContentType = contentType
	}
}

// EntryReader provides random access to one entry's data.
//
// An EntryReader returned by NewEntryReader is fully initialised: the data
// path (direct slice vs decoded copy) has already been chosen and never
// changes afterwards. The container byte source is borrowed for the stored
// path and must remain readable for the reader's lifetime; the decoded path
// owns an independent buffer with no further relation to the container.
type EntryReader struct {
	meta        EntryMetadata
	contentType string
	rr          RangeReader
}

// NewEntryReader parses the entry's local file header from src and returns a
// reader over the entry's data.
//
// Entries stored without compression (method [Store]) are read directly out
// of src by offset with zero decoding. Any other method causes the entry to
// be decoded in full, once, via entry.WriteData; decode failures are
// normalised with [UnwrapDecodeError] before being returned. The ctx only
// applies to the decode step, which is the sole potentially long operation.
func NewEntryReader(ctx context.Context, src ByteSource, entry Entry, optFns ...func(*Options)) (*EntryReader, error) {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}

	meta, err := ParseLocalFileHeader(src, entry.HeaderOffset())
	if err != nil {
		return nil, err
	}

	r := &EntryReader{meta: meta, contentType: opts.ContentType}

	if meta.Method == Store {
		r.rr = newStoredRange(src, meta)
		return r, nil
	}

	var buf bytes.Buffer
	buf.Grow(int(meta.UncompressedSize))
	if _, err = entry.WriteData(ctx, &buf); err != nil {
		return nil, fmt.Errorf("decode entry error: %w", UnwrapDecodeError(err))
	}

	r.rr = &decodedRange{buf: buf.Bytes()}
	return r, nil
}

// ReadRange returns up to length bytes of the entry's data starting at the
// logical index off, with the clamping semantics documented on [RangeReader].
func (r *EntryReader) ReadRange(off, length int64) ([]byte, error) {
	return r.rr.ReadRange(off, length)
}

// Size returns the entry's logical byte length: the raw data window size for
// stored entries, the decoded length otherwise.
func (r *EntryReader) Size() int64 {
	return r.rr.Size()
}

// Metadata returns the parsed local file header.
func (r *EntryReader) Metadata() EntryMetadata {
	return r.meta
}

// ContentType returns the MIME type declared via WithContentType, if any.
func (r *EntryReader) ContentType() string {
	return r.contentType
}
