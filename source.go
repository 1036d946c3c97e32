package zipview

import (
	"fmt"
	"io"
	"os"
)

// ByteSource provides random access to the bytes of a zip container.
//
// Implementations must support ranged reads into arbitrarily large containers
// without materialising the whole container; see the s3source and httpsource
// packages for remote implementations.
type ByteSource interface {
	io.ReaderAt

	// Size returns the total number of bytes in the container.
	Size() int64
}

// BytesSource is a ByteSource over an in-memory slice.
type BytesSource []byte

var _ ByteSource = BytesSource(nil)

func (b BytesSource) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off > int64(len(b)) {
		return 0, fmt.Errorf("read at offset %d: %w", off, io.ErrUnexpectedEOF)
	}

	n = copy(p, b[off:])
	if n < len(p) {
		err = io.EOF
	}
	return
}

func (b BytesSource) Size() int64 {
	return int64(len(b))
}

// FileSource is a ByteSource over an *os.File.
//
// The file is borrowed; the caller remains responsible for closing it, and it
// must stay open for all subsequent reads.
type FileSource struct {
	f    *os.File
	size int64
}

var _ ByteSource = (*FileSource)(nil)

// NewFileSource returns a FileSource whose size is determined by os.File.Stat.
func NewFileSource(f *os.File) (*FileSource, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf(`stat file "%s" error: %w`, f.Name(), err)
	}

	return &FileSource{f: f, size: fi.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}
