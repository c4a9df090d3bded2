package playback

import (
	"errors"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/player"
	"github.com/llehouerou/vyra/internal/stream"
)

var errLoadTimeout = errors.New("sink did not become ready in time")

// beginPlaying starts loading t under a new generation. resume is seeked to
// once the sink reports DataReady.
func (s *serviceImpl) beginPlaying(t catalog.Track, autoplay bool, resume time.Duration) {
	s.gen++
	gen := s.gen
	s.halt()

	prev := s.facts.CurrentTrack
	track := t.Clone()
	s.facts.CurrentTrack = &track
	s.facts.State = StateLoading
	s.facts.IsLoading = true
	s.facts.IsPlaying = false
	s.facts.Error = ErrorNone
	s.facts.ErrorMessage = ""
	s.facts.Progress = 0
	s.facts.Position = 0
	s.facts.Duration = t.Duration
	s.facts.ResumePosition = 0
	s.facts.Generation = gen
	s.facts.QueueIndex = s.queue.CurrentIndex()
	s.facts.QueueLen = s.queue.Len()
	s.pending = &pendingLoad{gen: gen, track: track, autoplay: autoplay, seekTo: resume}
	s.notifyTrack(prev)

	s.logger.Debug("begin playing", "track", t.ID, "gen", gen, "resume", resume)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		loc, err := s.resolver.Resolve(s.ctx, t.ID, gen)
		s.post(func() { s.handleResolved(gen, loc, err) })
	}()

	s.prefetchRadio()
}

func (s *serviceImpl) handleResolved(gen uint64, loc stream.Locator, err error) {
	if s.pending == nil || s.pending.gen != gen {
		s.logger.Debug("discarding stale resolution", "track", loc.TrackID, "gen", gen, "live", s.gen)
		return
	}
	if err != nil {
		s.fail(classify(err), err)
		return
	}
	s.locator = loc
	src := player.Source{URL: loc.URL, MimeType: loc.MimeType, Generation: gen}
	if err := s.sink.Load(src); err != nil {
		s.fail(ErrorPlaybackFailed, err)
		return
	}
	s.armWatchdog(gen)
}

// classify maps gateway errors onto error kinds.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, stream.ErrNotFound):
		return ErrorNotFound
	case errors.Is(err, stream.ErrTimeout):
		return ErrorTimeout
	default:
		return ErrorTransport
	}
}

func (s *serviceImpl) armWatchdog(gen uint64) {
	s.stopWatchdog()
	if s.loadTimeout <= 0 {
		return
	}
	s.watchdog = time.AfterFunc(s.loadTimeout, func() {
		s.post(func() { s.handleLoadTimeout(gen) })
	})
}

func (s *serviceImpl) stopWatchdog() {
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
}

func (s *serviceImpl) handleLoadTimeout(gen uint64) {
	if s.pending == nil || s.pending.gen != gen {
		return
	}
	s.fail(ErrorTimeout, errLoadTimeout)
}

// halt drops the loaded source and any load in flight.
func (s *serviceImpl) halt() {
	s.stopWatchdog()
	s.pending = nil
	s.ready = false
	s.locator = stream.Locator{}
	s.sink.Stop()
}

func (s *serviceImpl) fail(kind ErrorKind, err error) {
	s.halt()
	s.facts.IsLoading = false
	s.facts.IsPlaying = false
	s.facts.State = StateError
	s.facts.Error = kind
	s.facts.ErrorMessage = kind.Message()

	var track *catalog.Track
	trackID := ""
	if s.facts.CurrentTrack != nil {
		t := s.facts.CurrentTrack.Clone()
		track = &t
		trackID = t.ID
	}
	s.logger.Warn("playback failed", "track", trackID, "gen", s.gen, "kind", kind, "err", err)
	s.notifyError(ErrorEvent{Kind: kind, Track: track, Err: err})
}

func (s *serviceImpl) handleSinkEvent(ev player.Event) {
	if ev.Generation != s.gen {
		s.logger.Debug("discarding stale sink event", "kind", ev.Kind, "gen", ev.Generation, "live", s.gen)
		return
	}
	switch ev.Kind {
	case player.DataReady:
		s.handleDataReady(ev.Duration)
	case player.TimeProgressed:
		if s.ready {
			s.updatePosition(ev.Position, ev.Duration)
		}
	case player.Ended:
		s.handleEnded()
	case player.Failed:
		if s.pending != nil || s.ready {
			s.fail(ErrorPlaybackFailed, ev.Err)
		}
	}
}

func (s *serviceImpl) updatePosition(pos, dur time.Duration) {
	if dur > 0 {
		s.facts.Duration = dur
	}
	s.facts.Position = pos
	s.facts.Progress = progressOf(pos, s.facts.Duration)
}

func (s *serviceImpl) handleDataReady(dur time.Duration) {
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	s.stopWatchdog()
	s.ready = true
	s.facts.IsLoading = false
	if dur > 0 {
		s.facts.Duration = dur
	}

	if p.seekTo > 0 && s.facts.Duration > 0 {
		to := min(p.seekTo, max(s.facts.Duration-time.Second, 0))
		if to > 0 {
			s.sink.SeekTo(to)
			s.updatePosition(to, s.facts.Duration)
		}
	}

	if !p.autoplay {
		s.facts.State = StatePaused
		return
	}
	s.sink.Play()
	s.facts.IsPlaying = true
	s.facts.State = StatePlaying
	s.listener.PlaybackStarted(p.track, s.locator)
}

func (s *serviceImpl) handleEnded() {
	if !s.ready || s.facts.CurrentTrack == nil {
		return
	}
	track := s.facts.CurrentTrack.Clone()
	pos := s.facts.Position
	if s.facts.Duration > 0 {
		pos = s.facts.Duration
	}
	s.listener.PlaybackEnded(track, pos)

	if s.facts.Repeat == RepeatOne {
		s.restartCurrent()
		s.listener.PlaybackStarted(track, s.locator)
		return
	}
	s.next(true)
}

// restartCurrent seeks the loaded source to 0 and plays it.
func (s *serviceImpl) restartCurrent() {
	s.sink.SeekTo(0)
	s.sink.Play()
	s.updatePosition(0, s.facts.Duration)
	s.facts.IsPlaying = true
	s.facts.State = StatePlaying
}

// next advances the cursor. auto is true when the previous track ended on
// its own.
func (s *serviceImpl) next(auto bool) {
	if s.queue.IsEmpty() {
		return
	}
	idx, ok := s.queue.ComputeNext(s.facts.Shuffle, s.facts.Repeat == RepeatAll, s.intn)
	if !ok {
		s.stopAtEnd(auto)
		if s.facts.Autoplay && s.radio != nil {
			s.startRadio(true)
		}
		return
	}
	t := s.queue.JumpTo(idx)
	s.beginPlaying(*t, true, 0)
}

// stopAtEnd stops at the end of the queue without an error. The current
// track stays selected.
func (s *serviceImpl) stopAtEnd(auto bool) {
	if s.pending != nil {
		s.halt()
	} else if s.ready {
		s.sink.Pause()
	}
	s.facts.IsLoading = false
	s.facts.IsPlaying = false
	switch {
	case auto:
		s.facts.State = StateEnded
	case s.ready:
		s.facts.State = StatePaused
	default:
		s.facts.State = StateReady
	}
	s.logger.Debug("end of queue", "auto", auto)
}

func (s *serviceImpl) previous() {
	if s.queue.IsEmpty() {
		return
	}
	if s.ready && s.sink.Position() > s.restartThreshold {
		s.sink.SeekTo(0)
		s.updatePosition(0, s.facts.Duration)
		return
	}
	idx, ok := s.queue.ComputePrevious()
	if !ok {
		return
	}
	t := s.queue.JumpTo(idx)
	s.beginPlaying(*t, true, 0)
}

func (s *serviceImpl) togglePlay() {
	cur := s.facts.CurrentTrack
	if cur == nil || s.pending != nil {
		return
	}
	if s.ready && s.sink.HasSource() {
		if s.facts.IsPlaying {
			s.pause()
			return
		}
		if s.facts.State == StateEnded {
			s.restartCurrent()
			s.listener.PlaybackStarted(cur.Clone(), s.locator)
			return
		}
		s.sink.Play()
		s.facts.IsPlaying = true
		s.facts.State = StatePlaying
		return
	}
	s.beginPlaying(*cur, true, s.facts.ResumePosition)
}

func (s *serviceImpl) pause() {
	if !s.ready || !s.facts.IsPlaying {
		return
	}
	s.sink.Pause()
	s.facts.IsPlaying = false
	s.facts.State = StatePaused
}

func (s *serviceImpl) seek(fraction float64) {
	if s.facts.Duration <= 0 {
		return
	}
	fraction = min(max(fraction, 0), 1)
	target := time.Duration(fraction * float64(s.facts.Duration))

	switch {
	case s.ready:
		s.sink.SeekFraction(fraction)
		s.updatePosition(target, s.facts.Duration)
	case s.pending != nil:
		s.pending.seekTo = target
	default:
		s.facts.ResumePosition = target
		s.facts.Position = target
		s.facts.Progress = fraction
	}
}
