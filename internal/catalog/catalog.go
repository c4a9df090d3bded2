// Package catalog defines the track model and the catalog service the
// playback engine resolves tracks and streams through.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested content does not exist or
	// cannot be played.
	ErrNotFound = errors.New("content not found")
	// ErrNotSupported is returned by catalogs that do not implement an
	// optional capability.
	ErrNotSupported = errors.New("operation not supported by catalog")
)

// Stream is a directly playable audio locator returned by ResolveStream.
type Stream struct {
	URL       string
	MimeType  string
	Bitrate   int
	ExpiresAt time.Time // zero if the catalog does not say
}

// SearchResults groups the results of a free-text query.
type SearchResults struct {
	Songs     []Track
	Albums    []Collection
	Artists   []Artist
	Playlists []Collection
}

// Collection is an album or a playlist.
type Collection struct {
	ID        string
	Title     string
	Author    string
	Thumbnail string
	Tracks    []Track
}

// ArtistPage is the browse page of an artist.
type ArtistPage struct {
	Artist Artist
	Tracks []Track
	Albums []Collection
}

// Catalog is the metadata and stream service. Implementations may be slow
// and unreliable; callers apply their own timeouts.
type Catalog interface {
	Search(ctx context.Context, query string) (*SearchResults, error)
	// ResolveStream returns nil, nil when the track has no playable stream.
	ResolveStream(ctx context.Context, trackID string) (*Stream, error)
	GetPlaylistOrAlbum(ctx context.Context, id string) (*Collection, error)
	GetArtist(ctx context.Context, id string) (*ArtistPage, error)
}

// RadioSource is implemented by catalogs that can suggest tracks related to
// a seed track.
type RadioSource interface {
	Radio(ctx context.Context, seedTrackID string) ([]Track, error)
}

// TrackSource is implemented by catalogs that can look up a single track.
type TrackSource interface {
	GetTrack(ctx context.Context, trackID string) (*Track, error)
}
