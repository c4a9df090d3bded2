package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kkdai/youtube/v2"
)

// radioPrefix turns a video id into its auto-generated mix playlist id.
const radioPrefix = "RD"

// YouTube is a Catalog backed by the public YouTube player API.
type YouTube struct {
	client *youtube.Client
	logger *log.Logger
}

var (
	_ Catalog     = (*YouTube)(nil)
	_ RadioSource = (*YouTube)(nil)
	_ TrackSource = (*YouTube)(nil)
)

// NewYouTube creates a YouTube catalog. A nil httpClient uses
// http.DefaultClient.
func NewYouTube(httpClient *http.Client, logger *log.Logger) *YouTube {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTube{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger.With("component", "catalog"),
	}
}

// Client exposes the underlying client for the download pipeline.
func (y *YouTube) Client() *youtube.Client {
	return y.client
}

// Search is not offered by the player API.
func (y *YouTube) Search(_ context.Context, _ string) (*SearchResults, error) {
	return nil, ErrNotSupported
}

// GetArtist is not offered by the player API.
func (y *YouTube) GetArtist(_ context.Context, _ string) (*ArtistPage, error) {
	return nil, ErrNotSupported
}

// GetTrack fetches metadata for a single video.
func (y *YouTube) GetTrack(ctx context.Context, trackID string) (*Track, error) {
	video, err := y.client.GetVideoContext(ctx, trackID)
	if err != nil {
		return nil, classifyYouTubeError(err)
	}
	t := trackFromVideo(video)
	return &t, nil
}

// ResolveStream returns the best audio stream the sink can decode.
// MP4 audio is preferred; other audio containers are a fallback.
func (y *YouTube) ResolveStream(ctx context.Context, trackID string) (*Stream, error) {
	video, err := y.client.GetVideoContext(ctx, trackID)
	if err != nil {
		err = classifyYouTubeError(err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil //nolint:nilnil // no playable stream is not an error
		}
		return nil, err
	}

	format := SelectAudioFormat(video.Formats.Type("audio/mp4"), QualityVeryHigh)
	if format == nil {
		format = SelectAudioFormat(video.Formats, QualityVeryHigh)
	}
	if format == nil {
		y.logger.Debug("no audio formats", "track", trackID, "formats", len(video.Formats))
		return nil, nil //nolint:nilnil // no playable stream is not an error
	}

	streamURL, err := y.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("stream url for %s: %w", trackID, err)
	}

	return &Stream{
		URL:       streamURL,
		MimeType:  format.MimeType,
		Bitrate:   format.Bitrate,
		ExpiresAt: expiryFromURL(streamURL),
	}, nil
}

// GetPlaylistOrAlbum loads a playlist (albums are playlists on YouTube).
func (y *YouTube) GetPlaylistOrAlbum(ctx context.Context, id string) (*Collection, error) {
	playlist, err := y.client.GetPlaylistContext(ctx, id)
	if err != nil {
		return nil, classifyYouTubeError(err)
	}

	c := &Collection{
		ID:     playlist.ID,
		Title:  playlist.Title,
		Author: playlist.Author,
		Tracks: make([]Track, 0, len(playlist.Videos)),
	}
	for _, entry := range playlist.Videos {
		if entry == nil || entry.ID == "" {
			continue
		}
		c.Tracks = append(c.Tracks, trackFromEntry(entry))
	}
	if len(c.Tracks) > 0 {
		c.Thumbnail = c.Tracks[0].Thumbnail
	}
	return c, nil
}

// Radio returns the auto-generated mix for a seed track, without the seed.
func (y *YouTube) Radio(ctx context.Context, seedTrackID string) ([]Track, error) {
	c, err := y.GetPlaylistOrAlbum(ctx, radioPrefix+seedTrackID)
	if err != nil {
		return nil, fmt.Errorf("radio for %s: %w", seedTrackID, err)
	}
	tracks := make([]Track, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		if t.ID != seedTrackID {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func trackFromVideo(v *youtube.Video) Track {
	return Track{
		ID:        v.ID,
		Title:     v.Title,
		Artists:   []Artist{{ID: v.ChannelID, Name: trimTopicSuffix(v.Author)}},
		Duration:  v.Duration,
		Thumbnail: bestThumbnail(v.Thumbnails),
	}
}

func trackFromEntry(e *youtube.PlaylistEntry) Track {
	return Track{
		ID:        e.ID,
		Title:     e.Title,
		Artists:   []Artist{{Name: trimTopicSuffix(e.Author)}},
		Duration:  e.Duration,
		Thumbnail: bestThumbnail(e.Thumbnails),
	}
}

// Auto-generated music channels are named "<Artist> - Topic".
func trimTopicSuffix(author string) string {
	return strings.TrimSuffix(author, " - Topic")
}

func bestThumbnail(thumbs youtube.Thumbnails) string {
	var best youtube.Thumbnail
	for _, t := range thumbs {
		if t.Width*t.Height >= best.Width*best.Height {
			best = t
		}
	}
	return best.URL
}

// expiryFromURL reads the "expire" query parameter (unix seconds) that
// googlevideo stream URLs carry.
func expiryFromURL(raw string) time.Time {
	u, err := url.Parse(raw)
	if err != nil {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(u.Query().Get("expire"), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// classifyYouTubeError maps unplayable-content errors onto ErrNotFound.
func classifyYouTubeError(err error) error {
	var status youtube.ErrPlayabiltyStatus
	var code youtube.ErrUnexpectedStatusCode
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrNotPlayableInEmbed),
		errors.Is(err, youtube.ErrInvalidPlaylist),
		errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength),
		errors.As(err, &status):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.As(err, &code) && int(code) == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// VideoID extracts a video id from an id or a YouTube URL.
func VideoID(s string) (string, error) {
	return youtube.ExtractVideoID(strings.TrimSpace(s))
}
