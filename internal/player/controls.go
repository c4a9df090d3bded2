package player

import (
	"time"

	"github.com/gopxl/beep/v2/speaker"
)

const seekSettle = 100 * time.Millisecond

type seekRequest struct {
	gen uint64
	to  time.Duration
}

// Play resumes output of the attached source.
func (s *BeepSink) Play() { s.setPaused(false) }

// Pause halts output of the attached source.
func (s *BeepSink) Pause() { s.setPaused(true) }

func (s *BeepSink) setPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.ctrl.Paused = paused
	speaker.Unlock()
}

// SeekFraction seeks to f of the current duration.
func (s *BeepSink) SeekFraction(f float64) {
	f = min(max(f, 0), 1)
	s.SeekTo(time.Duration(f * float64(s.Duration())))
}

// SeekTo queues a seek to an absolute position. Only the most recent pending
// request is kept. The source is silent until the seek settles, so a Play
// right after SeekTo does not leak audio from the old position.
func (s *BeepSink) SeekTo(d time.Duration) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	req := seekRequest{gen: s.current.gen, to: max(d, 0)}
	speaker.Lock()
	s.current.vol.Silent = true
	speaker.Unlock()
	s.mu.Unlock()

	select {
	case s.seekChan <- req:
	default:
		select {
		case <-s.seekChan:
		default:
		}
		select {
		case s.seekChan <- req:
		default:
		}
	}
}

func (s *BeepSink) seekLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case req := <-s.seekChan:
			s.doSeek(req)
		}
	}
}

// doSeek mutes, seeks, waits for the output buffer to drain, then unmutes.
func (s *BeepSink) doSeek(req seekRequest) {
	s.mu.Lock()
	l := s.current
	if l == nil || l.gen != req.gen {
		s.mu.Unlock()
		return
	}
	target := l.format.SampleRate.N(req.to)
	speaker.Lock()
	target = min(target, max(l.streamer.Len()-1, 0))
	l.vol.Silent = true
	err := l.streamer.Seek(target)
	l.tail.rewind()
	speaker.Unlock()
	pos := s.positionLocked()
	dur := s.durationLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("seek failed", "gen", req.gen, "to", req.to, "err", err)
	}
	s.emitLossy(Event{Kind: TimeProgressed, Generation: req.gen, Position: pos, Duration: dur})

	select {
	case <-time.After(seekSettle):
	case <-s.done:
		return
	}

	s.mu.Lock()
	if s.current == l {
		speaker.Lock()
		l.vol.Silent = false
		speaker.Unlock()
	}
	s.mu.Unlock()
}
