package httpsource

import (
	"bytes"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRangeServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// http.ServeContent implements HEAD and Range for us.
		http.ServeContent(w, r, "container.zip", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestSource(t *testing.T) {
	data := make([]byte, 10_000)
	_, err := io.ReadFull(rand.Reader, data)
	require.NoError(t, err)

	s := newRangeServer(t, data)

	src, err := NewSource(s.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), src.Size())

	// interior range.
	p := make([]byte, 100)
	n, err := src.ReadAt(p, 5000)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[5000:5100], p)

	// range crossing the end is short with io.EOF.
	p = make([]byte, 200)
	n, err = src.ReadAt(p, int64(len(data))-50)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 50, n)
	assert.Equal(t, data[len(data)-50:], p[:n])

	// entirely past the end.
	_, err = src.ReadAt(p, int64(len(data)))
	assert.ErrorIs(t, err, io.EOF)

	// negative offset.
	_, err = src.ReadAt(p, -1)
	assert.Error(t, err)
}

func TestSource_Header(t *testing.T) {
	var gotAuth string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		http.ServeContent(w, r, "container.zip", time.Time{}, bytes.NewReader([]byte("0123456789")))
	}))
	t.Cleanup(s.Close)

	src, err := NewSource(s.URL, WithHeader("Authorization", "Bearer token"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", gotAuth)

	p := make([]byte, 4)
	_, err = src.ReadAt(p, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("2345"), p)
	assert.Equal(t, "Bearer token", gotAuth)
}

func TestSource_NoRangeSupport(t *testing.T) {
	data := []byte("0123456789")
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// plain 200 regardless of any Range header.
		w.Header().Set("Content-Length", "10")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)

	src, err := NewSource(s.URL)
	require.NoError(t, err)

	// reads from offset 0 can still be served off the full response.
	p := make([]byte, 4)
	n, err := src.ReadAt(p, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("0123"), p)

	// reads from anywhere else must fail rather than silently return wrong bytes.
	_, err = src.ReadAt(p, 5)
	assert.Error(t, err)
}

func TestContentRangeSize(t *testing.T) {
	size, ok := contentRangeSize("bytes 0-0/12345")
	assert.True(t, ok)
	assert.Equal(t, int64(12345), size)

	_, ok = contentRangeSize("garbage")
	assert.False(t, ok)
}
