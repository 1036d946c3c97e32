package cdscan

import (
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression methods from the zip specification (APPNOTE.TXT section 4.4.5).
const (
	MethodStore   uint16 = 0
	MethodDeflate uint16 = 8
	MethodZstd    uint16 = 93
	MethodXz      uint16 = 95
)

// ErrUnsupportedMethod is the cause of a *DecodeError when an entry uses a
// compression method with no registered decompressor.
var ErrUnsupportedMethod = errors.New("unsupported compression method")

// Decompressor returns a reader over the decompressed content of r, where r
// spans exactly the entry's compressed data.
type Decompressor func(r io.Reader) (io.ReadCloser, error)

var (
	decompressorsMu sync.RWMutex
	decompressors   = map[uint16]Decompressor{
		MethodStore: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
		MethodDeflate: func(r io.Reader) (io.ReadCloser, error) {
			return flate.NewReader(r), nil
		},
		MethodZstd: func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return &zstdDecoder{Decoder: d}, nil
		},
		MethodXz: func(r io.Reader) (io.ReadCloser, error) {
			d, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(d), nil
		},
	}
)

// RegisterDecompressor registers or overrides a custom decompressor for the
// given method, for all FileHeader.WriteData calls.
func RegisterDecompressor(method uint16, d Decompressor) {
	decompressorsMu.Lock()
	decompressors[method] = d
	decompressorsMu.Unlock()
}

func decompressor(method uint16) (Decompressor, bool) {
	decompressorsMu.RLock()
	d, ok := decompressors[method]
	decompressorsMu.RUnlock()
	return d, ok
}

// zstdDecoder adapts zstd.Decoder whose Close does not return an error.
type zstdDecoder struct {
	*zstd.Decoder
}

func (z *zstdDecoder) Close() error {
	z.Decoder.Close()
	return nil
}
