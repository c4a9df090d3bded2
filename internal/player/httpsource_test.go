package player

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func rangeServer(t *testing.T, data []byte, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		http.ServeContent(w, r, "track.mp3", time.Time{}, bytes.NewReader(data))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_ReadAll(t *testing.T) {
	data := payload(10_000)
	srv := rangeServer(t, data, nil)

	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	defer s.Close()

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), s.Size())
}

func TestHTTPSource_SeekReopensAtOffset(t *testing.T) {
	data := payload(10_000)
	var requests atomic.Int32
	srv := rangeServer(t, data, &requests)

	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	defer s.Close()

	pos, err := s.Seek(4000, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), pos)

	buf := make([]byte, 16)
	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, data[4000:4016], buf)
	assert.Equal(t, int32(2), requests.Load())
}

func TestHTTPSource_SeekWhence(t *testing.T) {
	data := payload(1000)
	srv := rangeServer(t, data, nil)

	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	defer s.Close()

	pos, err := s.Seek(-100, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pos)

	pos, err = s.Seek(50, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(950), pos)

	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data[950:], rest)

	_, err = s.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestHTTPSource_SameOffsetSeekKeepsConnection(t *testing.T) {
	var requests atomic.Int32
	srv := rangeServer(t, payload(1000), &requests)

	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = s.Read(make([]byte, 10))
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load())
}

func TestHTTPSource_ServerIgnoringRange(t *testing.T) {
	data := payload(2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Seek(1500, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, data[1500:], rest)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := openHTTP(context.Background(), srv.Client(), srv.URL)

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"), "error = %v", err)
}

func TestHTTPSource_ReadAfterClose(t *testing.T) {
	srv := rangeServer(t, payload(100), nil)
	s, err := openHTTP(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestContentRangeTotal(t *testing.T) {
	tests := []struct {
		header string
		want   int64
	}{
		{"bytes 0-99/1000", 1000},
		{"bytes 10-20/*", -1},
		{"", -1},
		{"bytes 0-1/abc", -1},
	}
	for _, tt := range tests {
		if got := contentRangeTotal(tt.header); got != tt.want {
			t.Errorf("contentRangeTotal(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
