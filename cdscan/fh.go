package cdscan

import (
	"archive/zip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FileHeader is a central directory file header that extends zip.FileHeader
// with the information needed to locate and decode the entry's content.
type FileHeader struct {
	zip.FileHeader

	// DiskNumber is the disk number where file starts.
	//
	// Since floppy disks aren't a thing anymore, this field is most likely unused.
	DiskNumber uint16

	// Offset is the relative offset of local file header.
	//
	// This is the number of bytes between the start of the first disk on
	// which the file occurs, and the start of the local file header.
	//
	// See https://en.wikipedia.org/wiki/ZIP_(file_format)#Central_directory_file_header_(CDFH).
	Offset int64

	src io.ReaderAt
}

// HeaderOffset returns the absolute position of the entry's local file header.
func (f FileHeader) HeaderOffset() int64 {
	return f.Offset
}

// WriteData decodes the entry's content in its entirety and writes the
// decoded bytes to dst.
//
// The compression method must be one of the registered decompressors (see
// RegisterDecompressor); store, deflate, zstd, and xz are built in. Decode
// failures are reported as *DecodeError wrapping the decompressor's own
// error. It is safe to WriteData multiple headers concurrently since all
// reads go through io.ReaderAt.
func (f FileHeader) WriteData(ctx context.Context, dst io.Writer) (int64, error) {
	body, err := f.findBodyOffset()
	if err != nil {
		return 0, err
	}

	newDec, ok := decompressor(f.Method)
	if !ok {
		return 0, &DecodeError{Name: f.Name, Method: f.Method, Err: ErrUnsupportedMethod}
	}

	dec, err := newDec(io.NewSectionReader(f.src, body, int64(f.CompressedSize64)))
	if err != nil {
		return 0, &DecodeError{Name: f.Name, Method: f.Method, Err: err}
	}

	n, err := copyWithContext(ctx, dst, dec, nil)
	if closeErr := dec.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, &DecodeError{Name: f.Name, Method: f.Method, Err: err}
	}

	return n, nil
}

// findBodyOffset reads the entry's local file header to skip past its
// variable-size file name and extra field, the way archive/zip does. The
// sizes in the central directory record are authoritative so only the two
// length fields are consulted here.
func (f FileHeader) findBodyOffset() (int64, error) {
	buf := make([]byte, 30)
	if n, err := f.src.ReadAt(buf, f.Offset); n < 30 {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("read local file header at offset %d error: %w", f.Offset, err)
	}

	filenameLen := int64(binary.LittleEndian.Uint16(buf[26:28]))
	extraLen := int64(binary.LittleEndian.Uint16(buf[28:30]))
	return f.Offset + 30 + filenameLen + extraLen, nil
}

// fixedSizeCDFileHeader needs to be fixed size to work with binary.Read.
//
// https://en.wikipedia.org/wiki/ZIP_(file_format)#Central_directory_file_header_(CDFH)
type fixedSizeCDFileHeader struct {
	Signature         uint32
	CreatorVersion    uint16
	ReaderVersion     uint16
	Flags             uint16
	Method            uint16
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileNameLength    uint16
	ExtraFieldLength  uint16
	FileCommentLength uint16
	DiskNumber        uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	Offset            uint32
}
