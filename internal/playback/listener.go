package playback

import (
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/stream"
)

// Listener receives playback side-effect notifications. Methods run on the
// service loop and must not block; slow work belongs in a goroutine.
type Listener interface {
	// PlaybackStarted is called when audio actually starts for a track,
	// not when loading begins.
	PlaybackStarted(track catalog.Track, loc stream.Locator)
	// PlaybackEnded is called when a track plays to its end.
	PlaybackEnded(track catalog.Track, position time.Duration)
}

// Listeners fans notifications out to several listeners in order.
type Listeners []Listener

func (ls Listeners) PlaybackStarted(track catalog.Track, loc stream.Locator) {
	for _, l := range ls {
		l.PlaybackStarted(track, loc)
	}
}

func (ls Listeners) PlaybackEnded(track catalog.Track, position time.Duration) {
	for _, l := range ls {
		l.PlaybackEnded(track, position)
	}
}

type nopListener struct{}

func (nopListener) PlaybackStarted(catalog.Track, stream.Locator) {}
func (nopListener) PlaybackEnded(catalog.Track, time.Duration)    {}
