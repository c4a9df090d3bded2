package lastfm

import (
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

const (
	minScrobbleDuration = 30 * time.Second
	maxScrobbleWait     = 4 * time.Minute
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// FromTrack converts a catalog track.
func FromTrack(t catalog.Track, startedAt time.Time) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    t.PrimaryArtist(),
		Track:     t.Title,
		Album:     t.AlbumName(),
		Duration:  t.Duration,
		Timestamp: startedAt,
	}
}

// ShouldScrobble applies the Last.fm rules: the track is longer than 30s and
// was played for half its length or 4 minutes, whichever comes first.
func ShouldScrobble(duration, played time.Duration) bool {
	if duration <= minScrobbleDuration {
		return false
	}
	return played >= min(duration/2, maxScrobbleWait)
}
