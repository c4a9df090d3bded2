package notify

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/stream"
)

const (
	trackIcon    = "audio-x-generic"
	trackTimeout = 5000
)

// ForTrack builds the "now playing" notification of a track.
func ForTrack(t catalog.Track) Notification {
	body := t.ArtistNames()
	if album := t.AlbumName(); album != "" {
		if body != "" {
			body += " - "
		}
		body += album
	}
	return Notification{
		Title:   t.Title,
		Body:    body,
		Icon:    trackIcon,
		Timeout: trackTimeout,
		Urgency: UrgencyLow,
	}
}

// TrackNotifier shows a notification when playback of a track starts. Each
// notification replaces the previous one. It implements playback.Listener.
type TrackNotifier struct {
	notifier Notifier
	logger   *log.Logger

	mu     sync.Mutex
	lastID uint32
}

func NewTrackNotifier(n Notifier, logger *log.Logger) *TrackNotifier {
	return &TrackNotifier{notifier: n, logger: logger.With("component", "notify")}
}

func (t *TrackNotifier) PlaybackStarted(track catalog.Track, _ stream.Locator) {
	n := ForTrack(track)

	t.mu.Lock()
	defer t.mu.Unlock()
	n.ReplacesID = t.lastID
	id, err := t.notifier.Notify(n)
	if err != nil {
		t.logger.Debug("notification failed", "track", track.ID, "err", err)
		return
	}
	t.lastID = id
}

func (t *TrackNotifier) PlaybackEnded(catalog.Track, time.Duration) {}
