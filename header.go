package zipview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nguyengg/zipview/cdscan"
)

// Store is the compression method of entries whose bytes are copied into the
// archive without compression. Stored entries can be read directly by offset.
const Store uint16 = 0

// localFileHeaderLen is the size of the fixed portion of a local file header.
// The file name and extra field follow immediately after.
const localFileHeaderLen = 30

// EntryMetadata describes one entry's local file header. It is a pure
// function of the 30 fixed header bytes; once computed it never changes.
type EntryMetadata struct {
	// Offset is the absolute position of the entry's local file header
	// within the container.
	Offset int64

	// Method is the compression method. Store means no compression.
	Method uint16

	// CRC32 is the checksum as declared in the header. It is carried for
	// callers that want it; this package never verifies it.
	CRC32 uint32

	// CompressedSize and UncompressedSize are the byte counts as declared
	// in the header. They are equal for stored entries.
	CompressedSize   int64
	UncompressedSize int64

	// Modified is the modification timestamp with MS-DOS 2-second resolution.
	Modified time.Time

	// HeaderSize is the total number of bytes occupied by the local file
	// header including the variable-size file name and extra field.
	HeaderSize int64
}

// DataOffset returns the absolute position where the entry's data begins.
func (m EntryMetadata) DataOffset() int64 {
	return m.Offset + m.HeaderSize
}

// fixedSizeLocalFileHeader needs to be fixed size to work with binary.Read.
//
// https://en.wikipedia.org/wiki/ZIP_(file_format)#Local_file_header
type fixedSizeLocalFileHeader struct {
	Signature        uint32
	ReaderVersion    uint16
	Flags            uint16
	Method           uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	FileNameLength   uint16
	ExtraFieldLength uint16
}

// ParseLocalFileHeader reads the fixed 30-byte portion of the local file
// header at the given offset and decodes it as an EntryMetadata.
//
// Exactly one bounded read is issued against src regardless of the entry's
// size, so parsing stays cheap even for very large archives. No validation
// is performed beyond the structural decode; a truncated container surfaces
// as the byte source's own read error. ZIP64 extended fields and archives
// split across multiple volumes are not supported.
func ParseLocalFileHeader(src ByteSource, offset int64) (EntryMetadata, error) {
	buf := make([]byte, localFileHeaderLen)
	if n, err := src.ReadAt(buf, offset); n < localFileHeaderLen {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return EntryMetadata{}, fmt.Errorf("read local file header at offset %d error: %w", offset, err)
	}

	data := &fixedSizeLocalFileHeader{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, data); err != nil {
		return EntryMetadata{}, fmt.Errorf("unmarshal local file header error: %w", err)
	}

	return EntryMetadata{
		Offset:           offset,
		Method:           data.Method,
		CRC32:            data.CRC32,
		CompressedSize:   int64(data.CompressedSize),
		UncompressedSize: int64(data.UncompressedSize),
		Modified:         cdscan.MSDosTimeToTime(data.ModifiedDate, data.ModifiedTime),
		HeaderSize:       localFileHeaderLen + int64(data.FileNameLength) + int64(data.ExtraFieldLength),
	}, nil
}
