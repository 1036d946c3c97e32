package zipview

import (
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// CachingOptions customises NewCachingSource.
type CachingOptions struct {
	// ChunkSize is the size of each cached chunk in bytes.
	//
	// Defaults to DefaultChunkSize. Cannot be non-positive.
	ChunkSize int64

	// MaxChunks is the number of chunks kept in memory before the least
	// recently used one is evicted.
	//
	// Defaults to DefaultMaxChunks. Cannot be non-positive.
	MaxChunks int

	// FetchConcurrency is the number of chunks fetched in parallel when a
	// read spans several uncached chunks.
	//
	// Defaults to DefaultFetchConcurrency. Cannot be non-positive.
	FetchConcurrency int
}

const (
	DefaultChunkSize        int64 = 64 * 1024
	DefaultMaxChunks              = 64
	DefaultFetchConcurrency       = 4
)

// CachingSource wraps a ByteSource with a chunked LRU read-through cache.
//
// It is intended for remote sources (HTTP, S3) where each ReadAt is a network
// round trip; repeated header parses and small ranged reads then hit memory
// instead. The underlying source is assumed immutable for the cache's
// lifetime. Safe for concurrent use if the underlying source is.
type CachingSource struct {
	src    ByteSource
	size   int64
	chunk  int64
	grpLim int
	cache  *lru.Cache[int64, []byte]
}

var _ ByteSource = (*CachingSource)(nil)

// NewCachingSource wraps src with a chunked LRU cache.
func NewCachingSource(src ByteSource, optFns ...func(*CachingOptions)) (*CachingSource, error) {
	opts := &CachingOptions{
		ChunkSize:        DefaultChunkSize,
		MaxChunks:        DefaultMaxChunks,
		FetchConcurrency: DefaultFetchConcurrency,
	}
	for _, fn := range optFns {
		fn(opts)
	}

	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunkSize (%d) must be greater than 0", opts.ChunkSize)
	}
	if opts.MaxChunks <= 0 {
		return nil, fmt.Errorf("maxChunks (%d) must be greater than 0", opts.MaxChunks)
	}
	if opts.FetchConcurrency <= 0 {
		return nil, fmt.Errorf("fetchConcurrency (%d) must be greater than 0", opts.FetchConcurrency)
	}

	cache, err := lru.New[int64, []byte](opts.MaxChunks)
	if err != nil {
		return nil, err
	}

	return &CachingSource{
		src:    src,
		size:   src.Size(),
		chunk:  opts.ChunkSize,
		grpLim: opts.FetchConcurrency,
		cache:  cache,
	}, nil
}

func (s *CachingSource) Size() int64 {
	return s.size
}

func (s *CachingSource) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("read at negative offset %d", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p))
	if end > s.size {
		end = s.size
	}

	// fetch all missing chunks covering [off, end) in parallel first.
	var missing []int64
	for idx := off / s.chunk; idx*s.chunk < end; idx++ {
		if !s.cache.Contains(idx) {
			missing = append(missing, idx)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.grpLim)
	for _, idx := range missing {
		g.Go(func() error {
			return s.fetch(idx)
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	for pos := off; pos < end; {
		idx := pos / s.chunk
		data, ok := s.cache.Get(idx)
		if !ok {
			// evicted between fetch and read; go straight to the source.
			if data, err = s.read(idx); err != nil {
				return n, err
			}
		}

		m := copy(p[pos-off:end-off], data[pos-idx*s.chunk:])
		if m == 0 {
			return n, io.ErrUnexpectedEOF
		}
		n, pos = n+m, pos+int64(m)
	}

	if end < off+int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

// fetch reads the chunk with the given index from the source into the cache.
func (s *CachingSource) fetch(idx int64) error {
	data, err := s.read(idx)
	if err != nil {
		return err
	}

	s.cache.Add(idx, data)
	return nil
}

func (s *CachingSource) read(idx int64) ([]byte, error) {
	start := idx * s.chunk
	length := s.chunk
	if start+length > s.size {
		length = s.size - start
	}

	data := make([]byte, length)
	if n, err := s.src.ReadAt(data, start); int64(n) < length {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read chunk %d at [%d, %d) error: %w", idx, start, start+length, err)
	}

	return data, nil
}
