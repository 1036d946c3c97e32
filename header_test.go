package zipview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalFileHeader(t *testing.T) {
	tests := []struct {
		name  string
		entry testEntry
	}{
		{
			name:  "no variable-size fields",
			entry: testEntry{name: "", data: []byte("x"), method: 0},
		},
		{
			name:  "file name only",
			entry: testEntry{name: "path/to/file.txt", data: []byte("content"), method: 0},
		},
		{
			name:  "file name and extra field",
			entry: testEntry{name: "a", data: []byte("content"), method: 0, extra: []byte{0x55, 0x54, 0x05, 0x00, 0x07, 0xaa, 0xbb, 0xcc, 0xdd}},
		},
		{
			name:  "long file name",
			entry: testEntry{name: strings.Repeat("d/", 100) + "f", data: []byte("deep"), method: 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			container, offsets := buildContainer(t, []testEntry{tt.entry})
			src := BytesSource(container)
			offset := offsets[tt.entry.name]

			m, err := ParseLocalFileHeader(src, offset)
			require.NoError(t, err)

			// headerSize must always account for both variable-size fields.
			assert.Equal(t, int64(30+len(tt.entry.name)+len(tt.entry.extra)), m.HeaderSize)
			assert.Equal(t, offset, m.Offset)
			assert.Equal(t, tt.entry.method, m.Method)
			assert.Equal(t, int64(len(tt.entry.data)), m.UncompressedSize)
			if tt.entry.method == Store {
				assert.Equal(t, m.UncompressedSize, m.CompressedSize)
			}
			assert.Equal(t, time.Date(2025, time.March, 30, 12, 4, 6, 0, time.UTC), m.Modified)

			// parsing is a pure function of the header bytes.
			again, err := ParseLocalFileHeader(src, offset)
			require.NoError(t, err)
			assert.Equal(t, m, again)
		})
	}
}
