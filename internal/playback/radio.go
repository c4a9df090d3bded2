package playback

import (
	"github.com/llehouerou/vyra/internal/catalog"
)

// radioPrefetchThreshold is the number of upcoming tracks below which the
// queue is extended in the background while autoplay is on.
const radioPrefetchThreshold = 6

func (s *serviceImpl) prefetchRadio() {
	if !s.facts.Autoplay || s.radio == nil {
		return
	}
	if s.queue.Upcoming() >= radioPrefetchThreshold {
		return
	}
	s.startRadio(false)
}

// startRadio fetches tracks related to the current one. With play set, the
// first new track is played when they arrive. Only one fetch runs at a time.
// A request for the running fetch's generation is folded into it; a request
// from a newer generation waits and is issued when the running fetch returns.
func (s *serviceImpl) startRadio(play bool) {
	cur := s.queue.Current()
	if cur == nil {
		return
	}
	if s.radioBusy {
		if s.radioGen == s.gen {
			s.radioPlay = s.radioPlay || play
			return
		}
		if !s.radioRetry || s.radioRetryGen != s.gen {
			s.radioRetryPlay = false
		}
		s.radioRetry = true
		s.radioRetryGen = s.gen
		s.radioRetryPlay = s.radioRetryPlay || play
		return
	}
	s.radioBusy = true
	s.radioGen = s.gen
	s.radioPlay = play

	gen := s.gen
	seed := cur.ID
	s.logger.Debug("fetching radio", "seed", seed, "gen", gen, "play", play)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tracks, err := s.radio.Radio(s.ctx, seed)
		s.post(func() { s.handleRadio(gen, tracks, err) })
	}()
}

func (s *serviceImpl) handleRadio(gen uint64, tracks []catalog.Track, err error) {
	play := s.radioPlay
	retry := s.radioRetry && s.radioRetryGen == s.gen
	retryPlay := s.radioRetryPlay
	s.radioBusy = false
	s.radioPlay = false
	s.radioRetry = false
	s.radioRetryPlay = false

	if gen != s.gen {
		s.logger.Debug("discarding stale radio", "gen", gen, "live", s.gen, "retry", retry)
		if retry {
			s.startRadio(retryPlay)
		}
		return
	}
	if err != nil {
		s.logger.Debug("radio fetch failed", "gen", gen, "err", err)
		return
	}

	var added []catalog.Track
	for _, t := range tracks {
		if t.ID == "" || s.queue.IndexOf(t.ID) >= 0 {
			continue
		}
		s.queue.Append(t.Clone())
		added = append(added, t)
	}
	s.logger.Debug("radio extended queue", "gen", gen, "added", len(added))
	if len(added) == 0 {
		return
	}
	s.history.Record(s.queue)
	s.notifyQueue()

	if play {
		t := s.queue.JumpTo(s.queue.IndexOf(added[0].ID))
		s.notifyQueue()
		s.beginPlaying(*t, true, 0)
	}
}
