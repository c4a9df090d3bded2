package playback

import (
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/playlist"
)

// Play plays track, jumping to it if it is already queued and replacing the
// queue with it otherwise.
func (s *serviceImpl) Play(track catalog.Track) error {
	return s.exec(func() {
		if idx := s.queue.IndexOf(track.ID); idx >= 0 {
			s.queue.JumpTo(idx)
		} else {
			s.queue.Replace([]catalog.Track{track}, 0)
		}
		s.history.Record(s.queue)
		s.notifyQueue()
		s.beginPlaying(*s.queue.Current(), true, 0)
	})
}

// PlayQueue replaces the queue and plays tracks[start].
func (s *serviceImpl) PlayQueue(tracks []catalog.Track, start int) error {
	var err error
	execErr := s.exec(func() {
		t, ok := s.queue.Replace(catalog.CloneTracks(tracks), start)
		if !ok {
			err = ErrInvalidIndex
			return
		}
		s.history.Record(s.queue)
		s.notifyQueue()
		s.beginPlaying(*t, true, 0)
	})
	if execErr != nil {
		return execErr
	}
	return err
}

// PlayAt moves the cursor to index and plays it.
func (s *serviceImpl) PlayAt(index int) error {
	var err error
	execErr := s.exec(func() {
		t := s.queue.JumpTo(index)
		if t == nil {
			err = ErrInvalidIndex
			return
		}
		s.notifyQueue()
		s.beginPlaying(*t, true, 0)
	})
	if execErr != nil {
		return execErr
	}
	return err
}

// Enqueue appends tracks. Appending to an empty queue selects the first
// appended track without playing it.
func (s *serviceImpl) Enqueue(tracks ...catalog.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	return s.exec(func() {
		s.queue.Append(catalog.CloneTracks(tracks)...)
		s.history.Record(s.queue)
		s.notifyQueue()
		if s.facts.CurrentTrack == nil {
			s.selectCurrent()
		}
	})
}

// ClearQueue empties the queue and stops playback.
func (s *serviceImpl) ClearQueue() error {
	return s.exec(func() {
		if s.queue.IsEmpty() && s.facts.CurrentTrack == nil {
			return
		}
		s.halt()
		s.queue.Clear()
		s.history.Record(s.queue)
		prev := s.facts.CurrentTrack
		s.facts = Facts{
			Volume:     s.facts.Volume,
			Shuffle:    s.facts.Shuffle,
			Repeat:     s.facts.Repeat,
			Autoplay:   s.facts.Autoplay,
			Generation: s.facts.Generation,
		}
		s.notifyQueue()
		s.notifyTrack(prev)
	})
}

// selectCurrent makes the queue cursor the current track, unloaded.
func (s *serviceImpl) selectCurrent() {
	cur := s.queue.Current()
	if cur == nil {
		return
	}
	prev := s.facts.CurrentTrack
	t := cur.Clone()
	s.facts.CurrentTrack = &t
	s.facts.State = StateReady
	s.facts.Duration = t.Duration
	s.facts.Position = 0
	s.facts.Progress = 0
	s.facts.ResumePosition = 0
	s.notifyTrack(prev)
}

func (s *serviceImpl) Undo() bool {
	var ok bool
	_ = s.exec(func() { ok = s.restoreHistory(s.history.Undo) })
	return ok
}

func (s *serviceImpl) Redo() bool {
	var ok bool
	_ = s.exec(func() { ok = s.restoreHistory(s.history.Redo) })
	return ok
}

// restoreHistory applies a history step to the queue. Playback is not
// touched.
func (s *serviceImpl) restoreHistory(step func() (playlist.Snapshot, bool)) bool {
	snap, ok := step()
	if !ok {
		return false
	}
	s.queue.Restore(snap.Tracks, snap.Index)
	s.notifyQueue()
	return true
}

func (s *serviceImpl) TogglePlay() error {
	return s.exec(s.togglePlay)
}

func (s *serviceImpl) Pause() error {
	return s.exec(s.pause)
}

func (s *serviceImpl) Resume() error {
	return s.exec(func() {
		if !s.facts.IsPlaying {
			s.togglePlay()
		}
	})
}

func (s *serviceImpl) Next() error {
	return s.exec(func() { s.next(false) })
}

func (s *serviceImpl) Previous() error {
	return s.exec(s.previous)
}

// Seek moves to fraction of the duration. It is a no-op while the duration
// is unknown.
func (s *serviceImpl) Seek(fraction float64) error {
	return s.exec(func() { s.seek(fraction) })
}

func (s *serviceImpl) SeekTo(position time.Duration) error {
	return s.exec(func() {
		if s.facts.Duration <= 0 {
			return
		}
		s.seek(float64(position) / float64(s.facts.Duration))
	})
}

func (s *serviceImpl) SetVolume(v float64) error {
	return s.exec(func() {
		v = min(max(v, 0), 1)
		s.sink.SetVolume(v)
		s.facts.Volume = v
	})
}

// ClearError dismisses the displayed error.
func (s *serviceImpl) ClearError() error {
	return s.exec(func() {
		if s.facts.Error == ErrorNone {
			return
		}
		s.facts.Error = ErrorNone
		s.facts.ErrorMessage = ""
		if s.facts.CurrentTrack != nil {
			s.facts.State = StateReady
		} else {
			s.facts.State = StateIdle
		}
	})
}

func (s *serviceImpl) ToggleShuffle() bool {
	var shuffle bool
	_ = s.exec(func() {
		s.facts.Shuffle = !s.facts.Shuffle
		shuffle = s.facts.Shuffle
		s.notifyMode()
	})
	return shuffle
}

func (s *serviceImpl) SetShuffle(enabled bool) {
	_ = s.exec(func() {
		if s.facts.Shuffle == enabled {
			return
		}
		s.facts.Shuffle = enabled
		s.notifyMode()
	})
}

// CycleRepeat moves off, all, one, off and returns the new mode.
func (s *serviceImpl) CycleRepeat() RepeatMode {
	var mode RepeatMode
	_ = s.exec(func() {
		s.facts.Repeat = s.facts.Repeat.next()
		mode = s.facts.Repeat
		s.notifyMode()
	})
	return mode
}

func (s *serviceImpl) SetRepeatMode(mode RepeatMode) {
	_ = s.exec(func() {
		if s.facts.Repeat == mode {
			return
		}
		s.facts.Repeat = mode
		s.notifyMode()
	})
}

// SetAutoplay enables extending the queue with related tracks when it runs
// out.
func (s *serviceImpl) SetAutoplay(enabled bool) {
	_ = s.exec(func() {
		if s.facts.Autoplay == enabled {
			return
		}
		s.facts.Autoplay = enabled
		s.notifyMode()
		s.prefetchRadio()
	})
}
