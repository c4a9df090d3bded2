package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const httpBufferSize = 256 * 1024

// NewHTTPClient returns a client tuned for long-lived streaming reads.
// There is no overall timeout; only connection setup and headers are bounded.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       300 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// httpSource is an io.ReadSeekCloser over a remote resource.
// Seeking drops the current response; the next Read reopens at the new
// offset with a Range request.
type httpSource struct {
	ctx    context.Context
	client *http.Client
	url    string

	size   int64 // -1 when unknown
	offset int64
	body   io.ReadCloser
	reader *bufio.Reader
	closed bool
}

func openHTTP(ctx context.Context, client *http.Client, url string) (*httpSource, error) {
	s := &httpSource{ctx: ctx, client: client, url: url, size: -1}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *httpSource) open() error {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Range", "bytes="+strconv.FormatInt(s.offset, 10)+"-")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request stream: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if total := contentRangeTotal(resp.Header.Get("Content-Range")); total >= 0 {
			s.size = total
		}
	case http.StatusOK:
		if resp.ContentLength >= 0 {
			s.size = resp.ContentLength
		}
		// Server ignored the range; skip to the offset by hand.
		if s.offset > 0 {
			if _, err := io.CopyN(io.Discard, resp.Body, s.offset); err != nil {
				resp.Body.Close()
				return fmt.Errorf("skip to offset %d: %w", s.offset, err)
			}
		}
	default:
		resp.Body.Close()
		return fmt.Errorf("stream http status: %s", resp.Status)
	}

	s.body = resp.Body
	s.reader = bufio.NewReaderSize(resp.Body, httpBufferSize)
	return nil
}

func (s *httpSource) Read(p []byte) (int, error) {
	if s.closed {
		return 0, errors.New("read from closed stream")
	}
	if s.size >= 0 && s.offset >= s.size {
		return 0, io.EOF
	}
	if s.body == nil {
		if err := s.open(); err != nil {
			return 0, err
		}
	}
	n, err := s.reader.Read(p)
	s.offset += int64(n)
	return n, err
}

func (s *httpSource) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, errors.New("seek on closed stream")
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.offset + offset
	case io.SeekEnd:
		if s.size < 0 {
			return 0, errors.New("seek from end: unknown stream size")
		}
		abs = s.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}

	if abs != s.offset {
		s.drop()
		s.offset = abs
	}
	return abs, nil
}

// Size returns the total length of the resource, or -1 when unknown.
func (s *httpSource) Size() int64 { return s.size }

func (s *httpSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.drop()
}

func (s *httpSource) drop() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	s.reader = nil
	return err
}

// contentRangeTotal parses the total from "bytes 0-99/1000".
func contentRangeTotal(h string) int64 {
	_, total, ok := strings.Cut(h, "/")
	if !ok || total == "*" {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
