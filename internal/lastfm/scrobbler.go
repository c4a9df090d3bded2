package lastfm

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
	"github.com/llehouerou/vyra/internal/stream"
)

const (
	// DefaultRetryInterval is how often failed scrobbles are resubmitted.
	DefaultRetryInterval = 5 * time.Minute

	maxAttempts    = 10
	pendingMaxAge  = 14 * 24 * time.Hour
	scrobbleBuffer = 32
)

// Store keeps scrobbles that could not be submitted.
type Store interface {
	AddPendingScrobble(s state.PendingScrobble) error
	GetPendingScrobbles() ([]state.PendingScrobble, error)
	UpdatePendingScrobbleAttempt(id int64, errMsg string) error
	DeletePendingScrobble(id int64) error
}

// pruner is implemented by stores that can drop stale pending scrobbles.
type pruner interface {
	DeleteOldPendingScrobbles(maxAge time.Duration) error
}

// Scrobbler reports playback to Last.fm. It implements playback.Listener.
// Network calls run on its own goroutine.
type Scrobbler struct {
	api    API
	store  Store
	logger *log.Logger

	jobs chan func()
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	started map[string]time.Time
}

// NewScrobbler starts the submit loop. Failed scrobbles are retried every
// retryInterval (DefaultRetryInterval when zero).
func NewScrobbler(api API, store Store, retryInterval time.Duration, logger *log.Logger) *Scrobbler {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	s := &Scrobbler{
		api:     api,
		store:   store,
		logger:  logger.With("component", "lastfm"),
		jobs:    make(chan func(), scrobbleBuffer),
		done:    make(chan struct{}),
		started: make(map[string]time.Time),
	}
	s.wg.Add(1)
	go s.run(retryInterval)
	return s
}

func (s *Scrobbler) run(retryInterval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case job := <-s.jobs:
			job()
		case <-ticker.C:
			s.RetryPending()
		}
	}
}

func (s *Scrobbler) PlaybackStarted(track catalog.Track, _ stream.Locator) {
	if !s.api.IsAuthenticated() {
		return
	}
	s.mu.Lock()
	s.started[track.ID] = time.Now()
	s.mu.Unlock()

	st := FromTrack(track, time.Now())
	s.enqueue(func() {
		if err := s.api.UpdateNowPlaying(st); err != nil {
			s.logger.Debug("now playing failed", "track", track.ID, "err", err)
		}
	}, nil)
}

func (s *Scrobbler) PlaybackEnded(track catalog.Track, played time.Duration) {
	if !s.api.IsAuthenticated() {
		return
	}
	s.mu.Lock()
	startedAt, ok := s.started[track.ID]
	delete(s.started, track.ID)
	s.mu.Unlock()
	if !ok {
		startedAt = time.Now().Add(-played)
	}

	duration := track.Duration
	if duration <= 0 {
		duration = played
	}
	if !ShouldScrobble(duration, played) {
		return
	}
	st := FromTrack(track, startedAt)
	st.Duration = duration
	s.enqueue(func() { s.submit(st) }, func() { s.addPending(st, "queue full") })
}

// enqueue hands job to the submit loop. overflow runs instead when the loop
// is backed up.
func (s *Scrobbler) enqueue(job, overflow func()) {
	select {
	case s.jobs <- job:
	default:
		if overflow != nil {
			overflow()
		}
	}
}

func (s *Scrobbler) submit(st ScrobbleTrack) {
	if err := s.api.Scrobble(st); err != nil {
		s.logger.Warn("scrobble failed, queued for retry", "track", st.Track, "err", err)
		s.addPending(st, err.Error())
		return
	}
	s.logger.Debug("scrobbled", "artist", st.Artist, "track", st.Track)
}

func (s *Scrobbler) addPending(st ScrobbleTrack, reason string) {
	err := s.store.AddPendingScrobble(state.PendingScrobble{
		Artist:    st.Artist,
		Track:     st.Track,
		Album:     st.Album,
		Duration:  st.Duration,
		Timestamp: st.Timestamp,
		LastError: reason,
	})
	if err != nil {
		s.logger.Warn("save pending scrobble failed", "err", err)
	}
}

// RetryPending resubmits stored scrobbles. Entries that failed too often
// are skipped.
func (s *Scrobbler) RetryPending() (succeeded, failed int) {
	if p, ok := s.store.(pruner); ok {
		if err := p.DeleteOldPendingScrobbles(pendingMaxAge); err != nil {
			s.logger.Debug("prune pending scrobbles failed", "err", err)
		}
	}
	pending, err := s.store.GetPendingScrobbles()
	if err != nil {
		s.logger.Warn("load pending scrobbles failed", "err", err)
		return 0, 0
	}
	for i := range pending {
		p := &pending[i]
		if p.Attempts >= maxAttempts {
			continue
		}
		err := s.api.Scrobble(ScrobbleTrack{
			Artist:    p.Artist,
			Track:     p.Track,
			Album:     p.Album,
			Duration:  p.Duration,
			Timestamp: p.Timestamp,
		})
		if err != nil {
			failed++
			_ = s.store.UpdatePendingScrobbleAttempt(p.ID, err.Error())
			continue
		}
		succeeded++
		_ = s.store.DeletePendingScrobble(p.ID)
	}
	if succeeded+failed > 0 {
		s.logger.Info("retried pending scrobbles", "succeeded", succeeded, "failed", failed)
	}
	return succeeded, failed
}

// Close stops the submit loop. Queued submissions that have not started are
// dropped.
func (s *Scrobbler) Close() {
	close(s.done)
	s.wg.Wait()
}
