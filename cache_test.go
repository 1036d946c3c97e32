package zipview

import (
	"crypto/rand"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a ByteSource to count how many ReadAt calls hit it.
type countingSource struct {
	ByteSource

	mu    sync.Mutex
	reads int
}

func (s *countingSource) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()

	return s.ByteSource.ReadAt(p, off)
}

func TestCachingSource(t *testing.T) {
	data := make([]byte, 10_000)
	_, err := io.ReadFull(rand.Reader, data)
	require.NoError(t, err)

	src := &countingSource{ByteSource: BytesSource(data)}
	cached, err := NewCachingSource(src, func(opts *CachingOptions) {
		opts.ChunkSize = 1024
	})
	require.NoError(t, err)

	assert.Equal(t, int64(len(data)), cached.Size())

	// a read spanning several chunks is assembled correctly.
	p := make([]byte, 3000)
	n, err := cached.ReadAt(p, 500)
	require.NoError(t, err)
	require.Equal(t, 3000, n)
	assert.Equal(t, data[500:3500], p)

	// repeating the read must be served entirely from the cache.
	reads := src.reads
	n, err = cached.ReadAt(p, 500)
	require.NoError(t, err)
	require.Equal(t, 3000, n)
	assert.Equal(t, data[500:3500], p)
	assert.Equal(t, reads, src.reads)

	// a read crossing the end of the source is short with io.EOF.
	p = make([]byte, 2048)
	n, err = cached.ReadAt(p, int64(len(data))-100)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[len(data)-100:], p[:n])

	// reads entirely past the end fail fast.
	_, err = cached.ReadAt(p, int64(len(data)))
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingSource_Eviction(t *testing.T) {
	data := make([]byte, 8192)
	_, err := io.ReadFull(rand.Reader, data)
	require.NoError(t, err)

	src := &countingSource{ByteSource: BytesSource(data)}
	cached, err := NewCachingSource(src, func(opts *CachingOptions) {
		opts.ChunkSize = 1024
		opts.MaxChunks = 2
	})
	require.NoError(t, err)

	// touch every chunk, then verify the data is still read correctly once
	// earlier chunks have been evicted.
	p := make([]byte, len(data))
	n, err := cached.ReadAt(p, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	assert.Equal(t, data, p)
}

func TestCachingSource_InvalidOptions(t *testing.T) {
	for _, fn := range []func(*CachingOptions){
		func(opts *CachingOptions) { opts.ChunkSize = 0 },
		func(opts *CachingOptions) { opts.MaxChunks = -1 },
		func(opts *CachingOptions) { opts.FetchConcurrency = 0 },
	} {
		_, err := NewCachingSource(BytesSource(nil), fn)
		assert.Error(t, err)
	}
}
