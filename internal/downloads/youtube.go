package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"

	"github.com/llehouerou/vyra/internal/catalog"
)

var errNoAudioFormat = errors.New("no audio format available")

// YouTubePipeline downloads the audio stream of a video to a file named
// "<artist> - <title><ext>" in the request destination.
type YouTubePipeline struct {
	client *youtube.Client
	logger *log.Logger
}

// NewYouTubePipeline creates a pipeline using client.
func NewYouTubePipeline(client *youtube.Client, logger *log.Logger) *YouTubePipeline {
	return &YouTubePipeline{client: client, logger: logger.With("component", "downloads")}
}

// Download implements Pipeline.
func (p *YouTubePipeline) Download(ctx context.Context, req Request, progress func(float64)) (string, error) {
	video, err := p.client.GetVideoContext(ctx, req.TrackID)
	if err != nil {
		return "", fmt.Errorf("get video: %w", err)
	}
	format := catalog.SelectAudioFormat(video.Formats, req.Quality)
	if format == nil {
		return "", errNoAudioFormat
	}
	body, size, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open stream: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(req.Destination, 0o755); err != nil {
		return "", err
	}
	name := FileName(req.Artist, req.Title, req.TrackID) + catalog.Extension(format.MimeType)
	dest := filepath.Join(req.Destination, name)

	n, err := writeFile(dest, body, size, progress)
	if err != nil {
		return "", err
	}
	p.logger.Debug("downloaded", "track", req.TrackID, "size", humanize.Bytes(uint64(n)), "path", dest)
	// DASH fragments are not always taggable; the audio is still usable.
	if err := writeTags(dest, req); err != nil {
		p.logger.Warn("tagging failed", "track", req.TrackID, "path", dest, "err", err)
	}
	return dest, nil
}

// writeFile copies r to dest through a temp file in the same directory.
func writeFile(dest string, r io.Reader, size int64, progress func(float64)) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".vyra-*.part")
	if err != nil {
		return 0, err
	}
	w := &progressWriter{w: tmp, total: size, report: progress}
	n, err := io.Copy(w, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if progress != nil {
		progress(1)
	}
	return n, nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	report  func(float64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.report != nil && p.total > 0 {
		p.report(float64(p.written) / float64(p.total))
	}
	return n, err
}

// FileName builds "<artist> - <title>" safe for use as a file name. It falls
// back to id when both are empty.
func FileName(artist, title, id string) string {
	artist = sanitizeFilename(artist)
	title = sanitizeFilename(title)
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case artist != "":
		return artist
	}
	return sanitizeFilename(id)
}

// sanitizeFilename removes characters that are invalid in filenames.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "",
		"\"", "'",
		"<", "",
		">", "",
		"|", "-",
		"\x00", "",
	)
	result := strings.TrimSpace(replacer.Replace(name))
	result = strings.Trim(result, ".")

	if len(result) > 200 {
		result = result[:200]
	}
	return result
}
