package zipview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampIndex(t *testing.T) {
	tests := []struct {
		i, size, expected int64
	}{
		{0, 10, 0},
		{5, 10, 5},
		{10, 10, 10},
		{15, 10, 10},
		{-1, 10, 9},
		{-10, 10, 0},
		{-15, 10, 0},
		{0, 0, 0},
		{-1, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, clampIndex(tt.i, tt.size), "clampIndex(%d, %d)", tt.i, tt.size)
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		off, length, size    int64
		expStart, expEnd     int64
	}{
		{0, 10, 10, 0, 10},
		{-1, 1, 10, 9, 10},
		{10, 10, 10, 10, 10},
		{-15, 10, 10, 0, 10},
		{5, 100, 10, 5, 10},
		{5, 0, 10, 5, 5},
		{5, -2, 10, 5, 5},
	}
	for _, tt := range tests {
		start, end := clampRange(tt.off, tt.length, tt.size)
		assert.Equal(t, tt.expStart, start, "clampRange(%d, %d, %d) start", tt.off, tt.length, tt.size)
		assert.Equal(t, tt.expEnd, end, "clampRange(%d, %d, %d) end", tt.off, tt.length, tt.size)
	}
}

func TestDecodedRange(t *testing.T) {
	r := &decodedRange{buf: []byte("0123456789")}

	assert.Equal(t, int64(10), r.Size())

	got, err := r.ReadRange(-3, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte("789"), got)

	got, err = r.ReadRange(0, 100)
	assert.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), got)

	got, err = r.ReadRange(100, 100)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
