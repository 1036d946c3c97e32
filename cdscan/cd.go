// Package cdscan scans a zip container's central directory to enumerate its
// entries without reading any entry data.
//
// The returned file headers carry the absolute offset of each entry's local
// file header and can decode their content on demand, which makes them
// usable as entry descriptors for zipview.NewEntryReader.
package cdscan

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/valyala/bytebufferpool"
)

const (
	sigLFH  = 0x04034b50
	sigCDFH = 0x02014b50
	sigEOCD = 0x06054b50

	// DefaultMaxBytes is the default value of [Options.MaxBytes].
	DefaultMaxBytes int64 = 1 * 1024 * 1024
)

var sigEOCDBytes = binary.LittleEndian.AppendUint32(nil, sigEOCD)

// ErrNoEOCDFound is returned if no EOCD signature was found.
var ErrNoEOCDFound = errors.New("end of central directory not found; most likely not a zip file")

// EOCDRecord models the end of central directory record of a zip file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is the number of this disk.
	DiskNumber uint16
	// CDDiskOffset is the disk where the central directory starts.
	CDDiskOffset uint16
	// CDCountOnDisk is the number of central directory records on this disk.
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records.
	CDCount uint16
	// CDSize is the size of the central directory in bytes.
	CDSize uint32
	// CDOffset is the offset of the start of the central directory,
	// relative to the start of the archive.
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	Comment []byte
}

// Options customises how the central directory is scanned.
type Options struct {
	// Ctx can be given to cancel the scanning after some time.
	//
	// By default, context.Background is used.
	Ctx context.Context

	// MaxBytes can be given to limit the number of bytes scanned
	// backwards while searching for the EOCD signature.
	//
	// By default, DefaultMaxBytes is used.
	MaxBytes int64

	// KeepComment controls whether the EOCD comment is kept or discarded.
	KeepComment bool
}

// Scan scans backwards from the end of src for the central directory.
//
// Returns the end-of-central-directory (EOCD) record, an iterator over the
// central directory file headers, and any error from searching for the EOCD.
// The method assumes src contains exactly 1 well-formatted zip archive; all
// bets are off otherwise. ZIP64 archives and archives split across multiple
// volumes are not supported.
//
// The returned file headers can [FileHeader.WriteData] concurrently since
// all reads go through io.ReaderAt. If src implements io.Closer, it is
// imperative src remains open for all subsequent reads.
func Scan(src io.ReaderAt, size int64, optFns ...func(*Options)) (EOCDRecord, iter.Seq2[FileHeader, error], error) {
	opts := &Options{
		Ctx:      context.Background(),
		MaxBytes: DefaultMaxBytes,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	r, err := findEOCD(src, size, opts)
	if err != nil {
		return r, nil, err
	}

	return r, func(yield func(FileHeader, error) bool) {
		bb := bytebufferpool.Get()
		defer bytebufferpool.Put(bb)

		var (
			buf    = make([]byte, 16*1024)
			offset = int64(r.CDOffset)
			readN  int
			err    error
		)

		for ; ; bb.Reset() {
			fh := FileHeader{}

			select {
			case <-opts.Ctx.Done():
				yield(fh, opts.Ctx.Err())
				return
			default:
			}

			if readN, err = src.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
				yield(fh, fmt.Errorf("next CD file header: read error: %w", err))
				return
			} else {
				if readN >= 4 && binary.LittleEndian.Uint32(buf[:4]) == sigEOCD {
					return
				}
				if readN < 46 {
					yield(fh, fmt.Errorf("next CD file header: read returns insufficient data, needs at least 46 bytes, got %d", readN))
					return
				}
				bb.B = buf[:readN]
			}

			fsfh := &fixedSizeCDFileHeader{}
			if err = binary.Read(bytes.NewReader(bb.B[:46]), binary.LittleEndian, fsfh); err != nil {
				yield(fh, fmt.Errorf("next CD file header: parse error: %w", err))
				return
			}
			if fsfh.Signature != sigCDFH {
				yield(fh, fmt.Errorf("next CD file header: mismatched signature, got 0x%x, expected 0x%x", fsfh.Signature, sigCDFH))
				return
			}
			fh = FileHeader{
				FileHeader: zip.FileHeader{
					CreatorVersion:     fsfh.CreatorVersion,
					ReaderVersion:      fsfh.ReaderVersion,
					Flags:              fsfh.Flags,
					Method:             fsfh.Method,
					Modified:           time.Time{},
					ModifiedTime:       fsfh.ModifiedTime,
					ModifiedDate:       fsfh.ModifiedDate,
					CRC32:              fsfh.CRC32,
					CompressedSize:     fsfh.CompressedSize,
					UncompressedSize:   fsfh.UncompressedSize,
					CompressedSize64:   uint64(fsfh.CompressedSize),
					UncompressedSize64: uint64(fsfh.UncompressedSize),
					ExternalAttrs:      fsfh.ExternalAttrs,
				},
				DiskNumber: fsfh.DiskNumber,
				Offset:     int64(fsfh.Offset),
				src:        src,
			}
			fh.Modified = MSDosTimeToTime(fh.ModifiedDate, fh.ModifiedTime)

			// 46 + n + m + k is the total number of bytes needed for the header. it's extremely unlikely
			// bufSize is less than 46 + n + m + k but just in case, wipe buffer to read and store nmk.
			bb.B, offset = bb.B[46:], offset+46
			n, m, k := fsfh.FileNameLength, fsfh.ExtraFieldLength, fsfh.FileCommentLength
			nmkLen := int(n) + int(m) + int(k)
			if nmkLen > bb.Len() {
				bb.B = make([]byte, nmkLen)
				if readN, err = src.ReadAt(bb.B, offset); err != nil && !errors.Is(err, io.EOF) {
					yield(fh, fmt.Errorf("next CD file header: read variable-size data: read error: %w", err))
					return
				} else if readN < nmkLen {
					yield(fh, fmt.Errorf("next CD file header: read variable-size data: read returns insufficient data, needs at least %d bytes, got %d", nmkLen, readN))
					return
				}
			}
			fh.Name, fh.Extra, fh.Comment = string(bb.B[:n]), bytes.Clone(bb.B[n:int(n)+int(m)]), string(bb.B[int(n)+int(m):nmkLen])
			offset += int64(nmkLen)

			if !yield(fh, nil) {
				return
			}
		}
	}, nil
}

// findEOCD searches backwards from the end of src for the EOCD signature,
// scanning at most opts.MaxBytes.
func findEOCD(src io.ReaderAt, size int64, opts *Options) (r EOCDRecord, err error) {
	const bufSize int64 = 1024

	buf := make([]byte, bufSize)
	low := max(0, size-opts.MaxBytes)

	for offset := max(low, size-bufSize); ; offset = max(low, offset-(bufSize-4)) {
		n, err := src.ReadAt(buf, offset)
		if err != nil && !errors.Is(err, io.EOF) {
			return r, fmt.Errorf("read EOCD error: %w", err)
		}

		if i := bytes.LastIndex(buf[:n], sigEOCDBytes); i != -1 {
			b := buf[i:n]
			if len(b) < 22 {
				// the record continues past this window; read it in full.
				b = make([]byte, 22)
				if readN, err := src.ReadAt(b, offset+int64(i)); readN < 22 {
					if err != nil && !errors.Is(err, io.EOF) {
						return r, fmt.Errorf("read EOCD error: %w", err)
					}
					return r, errors.New("invalid EOCD")
				}
			}
			r = EOCDRecord{
				DiskNumber:    binary.LittleEndian.Uint16(b[4:6]),
				CDDiskOffset:  binary.LittleEndian.Uint16(b[6:8]),
				CDCountOnDisk: binary.LittleEndian.Uint16(b[8:10]),
				CDCount:       binary.LittleEndian.Uint16(b[10:12]),
				CDSize:        binary.LittleEndian.Uint32(b[12:16]),
				CDOffset:      binary.LittleEndian.Uint32(b[16:20]),
			}
			if opts.KeepComment {
				commentLen := int(binary.LittleEndian.Uint16(b[20:22]))
				comment := make([]byte, commentLen)
				if _, err = src.ReadAt(comment, offset+int64(i)+22); err != nil && !errors.Is(err, io.EOF) {
					return r, fmt.Errorf("read EOCD comment error: %w", err)
				}
				r.Comment = comment
			}
			return r, nil
		}

		// we're already at the search limit, there's no more bytes to read.
		if offset == low {
			return r, ErrNoEOCDFound
		}
	}
}

// MSDosTimeToTime converts an MS-DOS date and time into a time.Time.
// The resolution is 2s.
// See: https://learn.microsoft.com/en-us/windows/win32/api/winbase/nf-winbase-dosdatetimetofiletime
//
// taken from https://go.dev/src/archive/zip/struct.go.
func MSDosTimeToTime(dosDate, dosTime uint16) time.Time {
	return time.Date(
		// date bits 0-4: day of month; 5-8: month; 9-15: years since 1980
		int(dosDate>>9+1980),
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),

		// time bits 0-4: second/2; 5-10: minute; 11-15: hour
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f*2),
		0, // nanoseconds

		time.UTC,
	)
}
