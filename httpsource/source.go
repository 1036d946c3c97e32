// Package httpsource implements zipview.ByteSource over HTTP range requests.
package httpsource

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Options customises NewSource.
type Options struct {
	// Client is the HTTP client used for all requests.
	//
	// By default, http.DefaultClient is used.
	Client *http.Client

	// Header is added to every request, e.g. for authorisation.
	Header http.Header
}

// WithClient sets the HTTP client used for requests.
func WithClient(client *http.Client) func(*Options) {
	return func(opts *Options) {
		opts.Client = client
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) func(*Options) {
	return func(opts *Options) {
		if opts.Header == nil {
			opts.Header = make(http.Header)
		}
		opts.Header.Set(key, value)
	}
}

// Source implements zipview.ByteSource via HTTP range requests.
//
// The remote server must support range requests; a server that replies 200 to
// a ranged GET would force whole-container downloads, so that reply is
// rejected for all reads that do not start at 0.
type Source struct {
	url    string
	client *http.Client
	header http.Header
	size   int64
}

// NewSource returns a Source for the given URL.
//
// The remote content size is probed once with a HEAD request; servers that do
// not advertise Content-Length are rejected.
func NewSource(url string, optFns ...func(*Options)) (*Source, error) {
	opts := &Options{Client: http.DefaultClient}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	s := &Source{url: url, client: opts.Client, header: opts.Header}

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create HEAD request error: %w", err)
	}
	s.applyHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe content size error: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("probe content size error: unexpected status %s", resp.Status)
	}
	if resp.ContentLength >= 0 {
		s.size = resp.ContentLength
		return s, nil
	}

	// some servers only reveal their size on ranged responses.
	if s.size, err = s.probeWithRange(); err != nil {
		return nil, err
	}
	return s, nil
}

// probeWithRange determines the content size from the Content-Range header of
// a one-byte ranged GET.
func (s *Source) probeWithRange() (int64, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create GET request error: %w", err)
	}
	s.applyHeader(req)
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probe content size error: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("probe content size error: unexpected status %s", resp.Status)
	}

	size, ok := contentRangeSize(resp.Header.Get("Content-Range"))
	if !ok {
		return 0, errors.New("probe content size error: no Content-Length or Content-Range")
	}
	return size, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

func (s *Source) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("read at negative offset %d", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create GET request error: %w", err)
	}
	s.applyHeader(req)
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ranged GET error: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		if off != 0 {
			return 0, errors.New("server ignored range request")
		}
	default:
		return 0, fmt.Errorf("ranged GET error: unexpected status %s", resp.Status)
	}

	n, err = io.ReadFull(resp.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) && off+int64(n) == s.size {
		// short read at end of content is an io.ReaderAt EOF.
		err = io.EOF
	}
	return n, err
}

func (s *Source) applyHeader(req *http.Request) {
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

// contentRangeSize extracts the total size from a Content-Range header value
// such as "bytes 0-99/12345".
func contentRangeSize(v string) (int64, bool) {
	i := strings.LastIndexByte(v, '/')
	if i == -1 {
		return 0, false
	}

	size, err := strconv.ParseInt(v[i+1:], 10, 64)
	return size, err == nil
}
